package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

type KubernetesSecretsClient interface {
	GetSecret(ctx context.Context, namespace string, name string) (map[string][]byte, error)
}

// Reads properties of Kubernetes secrets referenced as
// [namespace/]secret/property
type KubernetesSecretsProvider struct {
	Client    KubernetesSecretsClient
	Namespace string
}

type KubernetesClient struct {
	Client kubernetes.Interface
}

func (c *KubernetesClient) GetSecret(ctx context.Context, namespace string, name string) (map[string][]byte, error) {
	secret, err := c.Client.CoreV1().Secrets(namespace).Get(ctx, name, v1.GetOptions{})
	if err != nil {
		return nil, err
	}
	return secret.Data, nil
}

func NewKubernetesProvider(namespace string) *KubernetesSecretsProvider {
	return &KubernetesSecretsProvider{Namespace: namespace}
}

type secretRef struct {
	namespace string
	secret    string
}

func (p *KubernetesSecretsProvider) Read(ctx context.Context, ids map[string]string) (map[string]string, error) {
	if err := p.configure(); err != nil {
		return nil, err
	}

	// entry names by property, by secret
	groups := map[secretRef]map[string][]string{}
	for name, id := range ids {
		ref, property, err := p.parseKubernetesID(id)
		if err != nil {
			return nil, err
		}
		if groups[ref] == nil {
			groups[ref] = map[string][]string{}
		}
		groups[ref][property] = append(groups[ref][property], name)
	}

	result := map[string]string{}
	for ref, properties := range groups {
		data, err := p.Client.GetSecret(ctx, ref.namespace, ref.secret)
		if err != nil {
			log.Warn().Err(err).
				Str("namespace", ref.namespace).
				Str("secret", ref.secret).
				Msg("could not get kubernetes secret")
			continue
		}

		for property, names := range properties {
			val, ok := data[property]
			if !ok {
				log.Warn().
					Str("namespace", ref.namespace).Str("secret", ref.secret).
					Str("property", property).
					Msg("property not found in kubernetes secret")
				continue
			}
			for _, name := range names {
				result[name] = string(val)
			}
		}
	}

	return result, nil
}

func (p *KubernetesSecretsProvider) parseKubernetesID(id string) (secretRef, string, error) {
	parts := strings.Split(id, "/")
	switch len(parts) {
	case 3:
		return secretRef{namespace: parts[0], secret: parts[1]}, parts[2], nil
	case 2:
		return secretRef{namespace: p.Namespace, secret: parts[0]}, parts[1], nil
	}
	return secretRef{}, "", fmt.Errorf("invalid kubernetes secret id: %s", id)
}

// Uses the current kubeconfig context, honouring KUBECONFIG.
func (p *KubernetesSecretsProvider) configure() error {
	if p.Client != nil {
		return nil
	}

	loader := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		clientcmd.NewDefaultClientConfigLoadingRules(),
		&clientcmd.ConfigOverrides{},
	)
	config, err := loader.ClientConfig()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return err
	}
	p.Client = &KubernetesClient{Client: client}

	if p.Namespace == "" {
		ns, _, err := loader.Namespace()
		if err != nil || ns == "" {
			log.Debug().Err(err).Msg("failed to obtain current kubernetes namespace, using default")
			ns = "default"
		}
		p.Namespace = ns
	}
	return nil
}
