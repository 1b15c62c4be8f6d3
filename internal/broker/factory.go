// Package broker resolves broker clients per account.
package broker

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"alpharai/internal/broker/brokerobs"
	"alpharai/internal/broker/kite"
	"alpharai/internal/broker/paper"
	"alpharai/internal/interfaces"
	"alpharai/internal/types"
)

const defaultPaperBalance = 10000

// Factory resolves one broker client per account and caches it. In
// DRY_RUN mode every account gets an in-memory paper broker regardless of
// its platform. Credentials are read from the environment, keyed by the
// account's secret name.
type Factory struct {
	mode string

	mu      sync.Mutex
	clients map[string]interfaces.BrokerClient
}

var _ interfaces.BrokerFactory = (*Factory)(nil)

func NewFactory(mode string) *Factory {
	return &Factory{
		mode:    mode,
		clients: make(map[string]interfaces.BrokerClient),
	}
}

func (f *Factory) ClientFor(ctx context.Context, account types.Account) (interfaces.BrokerClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[account.UID]; ok {
		return client, nil
	}

	client, err := f.build(account)
	if err != nil {
		return nil, err
	}
	client = brokerobs.Wrap(account.UID, client)
	f.clients[account.UID] = client
	return client, nil
}

func (f *Factory) build(account types.Account) (interfaces.BrokerClient, error) {
	if f.mode == "DRY_RUN" || account.Platform == types.PlatformPaper {
		return paper.New(account.UID, paperBalance(account)), nil
	}

	switch account.Platform {
	case types.PlatformKite:
		return kite.New(kite.Params{
			AccountUID:  account.UID,
			APIKey:      secret(account, "API_KEY"),
			AccessToken: secret(account, "ACCESS_TOKEN"),
			Exchange:    secret(account, "EXCHANGE"),
		})
	default:
		return nil, fmt.Errorf("%w: unsupported platform %s for account %s",
			types.ErrBroker, account.Platform, account.UID)
	}
}

// secret reads ALPHARAI_<SECRET_NAME>_<KEY> from the environment.
func secret(account types.Account, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(account.SecretName, "-", "_"))
	return os.Getenv(fmt.Sprintf("ALPHARAI_%s_%s", name, key))
}

func paperBalance(account types.Account) float64 {
	if v := secret(account, "PAPER_BALANCE"); v != "" {
		if b, err := strconv.ParseFloat(v, 64); err == nil && b > 0 {
			return b
		}
	}
	return defaultPaperBalance
}
