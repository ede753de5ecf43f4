package service

import (
	"context"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// backOffice is shared by the admin and store services
type backOffice struct {
	api      API
	cache    *cache.Cache
	policies Policies
	logger   log.FieldLogger
}

func newBackOffice(api API, c *cache.Cache, p Policies, logger log.FieldLogger) backOffice {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return backOffice{api: api, cache: c, policies: p, logger: logger}
}

// listKey scopes a list entry by its query so each page is cached apart
func listKey(resource string, params models.ListParams) cache.Key {
	return cache.Key{Resource: resource, Scope: client.ListQuery(params).Encode()}
}

func detailKey(resource, id string) cache.Key {
	return cache.Key{Resource: resource, Scope: id}
}

// getter returns a fetcher decoding path into a fresh T
func getter[T any](api API, path string, query url.Values) func(context.Context) (*T, error) {
	return func(ctx context.Context) (*T, error) {
		var out T
		if err := api.Get(ctx, path, query, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
}
