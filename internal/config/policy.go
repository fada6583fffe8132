package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GroupAPI is the resource group served under /api/v1.
const GroupAPI = "api"

// AccessPolicy lists the paths that bypass authentication, per resource group.
type AccessPolicy struct {
	Exemptions map[string][]string `mapstructure:"exemptions"`
}

func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{
		Exemptions: map[string][]string{
			GroupAPI: {
				"/api/v1/status/",
				"/api/v1/unauthorized/",
				"/api/v1/forbidden/",
				"/api/v1/auth_session/login/",
			},
		},
	}
}

// PolicyHolder keeps the current access policy and swaps it on file changes.
type PolicyHolder struct {
	current atomic.Value // holds AccessPolicy
	log     *zap.Logger
}

func NewPolicyHolder(cfg Config, log *zap.Logger) (*PolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.policy")

	v := viper.New()
	if path := strings.TrimSpace(cfg.Auth.PolicyPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("policy")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/authgate")
		v.AddConfigPath(".")
	}

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		defaults := DefaultAccessPolicy()
		v.SetDefault("policy.exemptions", defaults.Exemptions)
		watch = false
	}

	policy, err := decodePolicy(v)
	if err != nil {
		return nil, err
	}
	policy = applyEnvOverride(policy, cfg.Auth.ExcludedPaths)

	holder := &PolicyHolder{log: log}
	holder.current.Store(policy)

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodePolicy(v)
			if err != nil {
				log.Warn("policy reload failed", zap.Error(err))
				return
			}
			holder.current.Store(applyEnvOverride(updated, cfg.Auth.ExcludedPaths))
			log.Info("policy reloaded", zap.String("file", filepath.Base(e.Name)))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticPolicyHolder returns a holder that never reloads.
func NewStaticPolicyHolder(policy AccessPolicy) *PolicyHolder {
	holder := &PolicyHolder{log: zap.NewNop()}
	holder.current.Store(policy)
	return holder
}

func (h *PolicyHolder) Get() AccessPolicy {
	return h.current.Load().(AccessPolicy)
}

// Exemptions returns a copy of the exemption list for the group.
func (h *PolicyHolder) Exemptions(group string) []string {
	list := h.Get().Exemptions[group]
	return append([]string(nil), list...)
}

func decodePolicy(v *viper.Viper) (AccessPolicy, error) {
	var policy AccessPolicy
	if err := v.UnmarshalKey("policy", &policy); err != nil {
		return AccessPolicy{}, err
	}
	if err := validateAccessPolicy(policy); err != nil {
		return AccessPolicy{}, err
	}
	return policy, nil
}

func applyEnvOverride(policy AccessPolicy, excluded []string) AccessPolicy {
	if len(excluded) == 0 {
		return policy
	}
	out := AccessPolicy{Exemptions: make(map[string][]string, len(policy.Exemptions)+1)}
	for group, list := range policy.Exemptions {
		out.Exemptions[group] = list
	}
	out.Exemptions[GroupAPI] = append([]string(nil), excluded...)
	return out
}

func validateAccessPolicy(policy AccessPolicy) error {
	for group, list := range policy.Exemptions {
		for _, entry := range list {
			if strings.TrimSpace(entry) == "" {
				return fmt.Errorf("policy.exemptions.%s contains an empty entry", group)
			}
		}
	}
	return nil
}
