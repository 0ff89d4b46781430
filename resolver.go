package awsx

import (
	"maps"
	"slices"
)

// Effective is the construction input for one service key.
type Effective struct {
	Key      string
	Enabled  bool
	Client   *ClientSettings // nil: apply SDK defaults
	Endpoint *Endpoint       // nil: no endpoint override
	Region   string          // empty: let the SDK decide
}

// Resolver derives effective client settings from a loaded tree. It holds an
// immutable snapshot, so concurrent reads need no locking.
type Resolver struct {
	clients ClientsConfig
	storage StorageOverlay
}

// NewResolver snapshots cfg. Later changes to cfg are not observed.
func NewResolver(cfg *Config) *Resolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	clients := make(ClientsConfig, len(cfg.Clients))
	for k, v := range cfg.Clients {
		clients[normalizeKey(k)] = v
	}

	return &Resolver{
		clients: clients,
		storage: cfg.Storage,
	}
}

func (r *Resolver) lookup(key string) ServiceSettings {
	return r.clients[normalizeKey(key)]
}

// profiles returns the service block and the default profile it falls back to.
func (r *Resolver) profiles(key string) (ServiceSettings, ServiceSettings) {
	return r.lookup(key), r.lookup(DefaultKeyFor(key))
}

// ResolveEndpoint returns the endpoint override for key. A region or a
// signing region configured on the service itself shadows an endpoint
// inherited from the default profile.
func (r *Resolver) ResolveEndpoint(key string) (Endpoint, bool) {
	svc, def := r.profiles(key)
	if ep, ok := svc.Endpoint.resolve(); ok {
		return ep, true
	}
	if svc.Region != "" || svc.Endpoint.SigningRegion != "" {
		return Endpoint{}, false
	}
	return def.Endpoint.resolve()
}

// ResolveRegion returns the region for key, only when no endpoint resolved.
func (r *Resolver) ResolveRegion(key string) (string, bool) {
	if _, ok := r.ResolveEndpoint(key); ok {
		return "", false
	}

	svc, def := r.profiles(key)
	if svc.Region != "" {
		return svc.Region, true
	}
	if def.Region != "" {
		return def.Region, true
	}
	return "", false
}

// ResolveClientConfiguration returns the transport settings of key, else
// those of its default profile.
func (r *Resolver) ResolveClientConfiguration(key string) (ClientSettings, bool) {
	svc, def := r.profiles(key)
	if !svc.Client.IsZero() {
		return svc.Client, true
	}
	if !def.Client.IsZero() {
		return def.Client, true
	}
	return ClientSettings{}, false
}

// IsEnabled reports whether a client should be built for key. Defaults to true.
func (r *Resolver) IsEnabled(key string) bool {
	if enabled := r.lookup(key).Enabled; enabled != nil {
		return *enabled
	}
	return true
}

// ResolveStorageOverlay returns the S3 flags as configured.
func (r *Resolver) ResolveStorageOverlay() StorageOverlay {
	return r.storage
}

// Effective resolves every field of key at once.
func (r *Resolver) Effective(key string) Effective {
	eff := Effective{
		Key:     normalizeKey(key),
		Enabled: r.IsEnabled(key),
	}

	if client, ok := r.ResolveClientConfiguration(key); ok {
		eff.Client = &client
	}
	if ep, ok := r.ResolveEndpoint(key); ok {
		eff.Endpoint = &ep
	}
	if region, ok := r.ResolveRegion(key); ok {
		eff.Region = region
	}

	return eff
}

// HasKey reports whether key has its own configuration block.
func (r *Resolver) HasKey(key string) bool {
	_, ok := r.clients[normalizeKey(key)]
	return ok
}

// ConfiguredKeys returns the configured service keys, default profiles excluded.
func (r *Resolver) ConfiguredKeys() []string {
	keys := slices.Sorted(maps.Keys(r.clients))
	return slices.DeleteFunc(keys, IsDefaultProfile)
}
