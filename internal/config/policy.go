package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policy tunes membership behaviour that operators may change without a redeploy.
type Policy struct {
	Invite InvitePolicy `mapstructure:"invite"`
	Slug   SlugPolicy   `mapstructure:"slug"`
	Lock   LockPolicy   `mapstructure:"lock"`
}

type InvitePolicy struct {
	// DefaultRole is granted to users joining through a generic invite link.
	DefaultRole string `mapstructure:"defaultRole"`
}

type SlugPolicy struct {
	MaxAttempts int `mapstructure:"maxAttempts"`
}

type LockPolicy struct {
	TTL         time.Duration `mapstructure:"ttl"`
	WaitTimeout time.Duration `mapstructure:"waitTimeout"`
}

func DefaultPolicy() Policy {
	return Policy{
		Invite: InvitePolicy{DefaultRole: "member"},
		Slug:   SlugPolicy{MaxAttempts: 5},
		Lock:   LockPolicy{TTL: 15 * time.Second, WaitTimeout: 5 * time.Second},
	}
}

// PolicyHolder serves the latest valid Policy.
type PolicyHolder struct {
	current atomic.Value // holds Policy
}

// NewStaticPolicyHolder returns a holder that never reloads.
func NewStaticPolicyHolder(p Policy) *PolicyHolder {
	h := &PolicyHolder{}
	h.current.Store(p)
	return h
}

// NewPolicyHolder reads membership.yml (or cfg.PolicyPath) and watches it for changes.
// A missing file yields DefaultPolicy.
func NewPolicyHolder(cfg Config, log *zap.Logger) (*PolicyHolder, error) {
	v := viper.New()

	if cfg.PolicyPath != "" {
		v.SetConfigFile(cfg.PolicyPath)
	} else {
		v.SetConfigName("membership")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/orgkeeper")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ORGKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicy()
	v.SetDefault("invite.defaultRole", defaults.Invite.DefaultRole)
	v.SetDefault("slug.maxAttempts", defaults.Slug.MaxAttempts)
	v.SetDefault("lock.ttl", defaults.Lock.TTL)
	v.SetDefault("lock.waitTimeout", defaults.Lock.WaitTimeout)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var policy Policy
	if err := v.Unmarshal(&policy); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	holder := NewStaticPolicyHolder(policy)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Policy
		if err := v.Unmarshal(&updated); err != nil {
			log.Warn("membership policy reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := validatePolicy(updated); err != nil {
			log.Warn("invalid membership policy ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("membership policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *PolicyHolder) Get() Policy {
	return h.current.Load().(Policy)
}

func validatePolicy(p Policy) error {
	switch p.Invite.DefaultRole {
	case "owner", "member":
	default:
		return errors.New("invite.defaultRole must be owner or member")
	}
	if p.Slug.MaxAttempts < 1 {
		return errors.New("slug.maxAttempts must be positive")
	}
	if p.Lock.TTL <= 0 || p.Lock.WaitTimeout <= 0 {
		return errors.New("lock.ttl and lock.waitTimeout must be positive")
	}
	return nil
}
