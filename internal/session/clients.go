package session

import (
	"fmt"
	"sort"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// ClientFactory builds API handles bound to a kubeconfig context. An empty
// context means the kubeconfig's current context.
type ClientFactory func(contextName string) (kubernetes.Interface, error)

// KubeconfigLoader returns the merged kubeconfig.
type KubeconfigLoader func() (*clientcmdapi.Config, error)

// ContextInfo describes one kubeconfig context.
type ContextInfo struct {
	Name      string `json:"name"`
	Cluster   string `json:"cluster"`
	User      string `json:"user"`
	Namespace string `json:"namespace,omitempty"`
	Current   bool   `json:"current"`
	Active    bool   `json:"active"`
}

func loadingRules(kubeconfig string) *clientcmd.ClientConfigLoadingRules {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}

	return rules
}

// NewClientFactory returns a ClientFactory reading the default kubeconfig
// locations, or kubeconfig when it is set.
func NewClientFactory(kubeconfig string) ClientFactory {
	return func(contextName string) (kubernetes.Interface, error) {
		overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}

		restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules(kubeconfig), overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig for context %q: %w", contextName, err)
		}

		clientset, err := kubernetes.NewForConfig(restConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create clientset: %w", err)
		}

		return clientset, nil
	}
}

// NewKubeconfigLoader returns a KubeconfigLoader for the same locations as NewClientFactory.
func NewKubeconfigLoader(kubeconfig string) KubeconfigLoader {
	return func() (*clientcmdapi.Config, error) {
		cfg, err := loadingRules(kubeconfig).Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}

		return cfg, nil
	}
}

func listContexts(cfg *clientcmdapi.Config, active string) []ContextInfo {
	contexts := make([]ContextInfo, 0, len(cfg.Contexts))

	for name, c := range cfg.Contexts {
		contexts = append(contexts, ContextInfo{
			Name:      name,
			Cluster:   c.Cluster,
			User:      c.AuthInfo,
			Namespace: c.Namespace,
			Current:   name == cfg.CurrentContext,
			Active:    name == active,
		})
	}

	// map iteration order is random
	sort.Slice(contexts, func(i, j int) bool {
		return contexts[i].Name < contexts[j].Name
	})

	return contexts
}
