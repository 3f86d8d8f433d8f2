// Package config loads connection and schema settings from YAML and turns
// them into a driver cluster, a session and startup schema actions.
//
// A minimal file:
//
//	contact_points: [127.0.0.1]
//	local_datacenter: datacenter1
//	keyspace: shop
//	consistency: LOCAL_QUORUM
//	schema_action: create_if_not_exists
//	keyspaces:
//	  create:
//	    - name: shop
//	      replication_factor: 1
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/yaml.v3"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	v1 "github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql/v1"
	"github.com/spring-projects/spring-data-cassandra-sub011/schema"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Defaults applied to unset properties.
const (
	DefaultPort           = 9042
	DefaultConnectTimeout = 5 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultPageSize       = 5000
)

// Properties are the connection, keyspace and schema settings of a
// Cassandra client.
type Properties struct {
	ContactPoints      []string      `yaml:"contact_points"`
	Port               int           `yaml:"port"`
	LocalDatacenter    string        `yaml:"local_datacenter"`
	Keyspace           string        `yaml:"keyspace"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Consistency        string        `yaml:"consistency"`
	SerialConsistency  string        `yaml:"serial_consistency"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	PageSize           int           `yaml:"page_size"`
	Compression        string        `yaml:"compression"`
	ProtocolVersion    int           `yaml:"protocol_version"`
	ConnectionsPerHost int           `yaml:"connections_per_host"`
	SchemaAction       schema.Action `yaml:"schema_action"`
	Keyspaces          Keyspaces     `yaml:"keyspaces"`
	StartupScripts     []string      `yaml:"startup_scripts"`
	ShutdownScripts    []string      `yaml:"shutdown_scripts"`
}

// Keyspaces lists keyspaces created at startup and dropped at shutdown.
type Keyspaces struct {
	Create []KeyspaceProperties `yaml:"create"`
	Drop   []string             `yaml:"drop"`
}

// KeyspaceProperties describes a keyspace to create. DataCenters selects
// NetworkTopologyStrategy; otherwise SimpleStrategy with ReplicationFactor
// is used.
type KeyspaceProperties struct {
	Name              string         `yaml:"name"`
	ReplicationFactor int            `yaml:"replication_factor"`
	DataCenters       map[string]int `yaml:"data_centers"`
	DurableWrites     *bool          `yaml:"durable_writes"`
}

// Spec returns the CREATE KEYSPACE IF NOT EXISTS statement of k.
func (k KeyspaceProperties) Spec() *schema.CreateKeyspaceSpec {
	spec := schema.CreateKeyspace(k.Name).IfNotExists()
	if len(k.DataCenters) > 0 {
		spec.WithNetworkReplication(k.DataCenters)
	} else if k.ReplicationFactor > 0 {
		spec.WithSimpleReplication(k.ReplicationFactor)
	}
	if k.DurableWrites != nil {
		spec.WithDurableWrites(*k.DurableWrites)
	}

	return spec
}

// Load reads properties from a YAML file.
func Load(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML properties, applies defaults and validates them.
func Parse(data []byte) (*Properties, error) {
	var p Properties
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	p.applyDefaults()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (p *Properties) applyDefaults() {
	if len(p.ContactPoints) == 0 {
		p.ContactPoints = []string{"127.0.0.1"}
	}
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.ConnectTimeout == 0 {
		p.ConnectTimeout = DefaultConnectTimeout
	}
	if p.RequestTimeout == 0 {
		p.RequestTimeout = DefaultRequestTimeout
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
}

// Validate reports every invalid property.
func (p *Properties) Validate() error {
	var errs []error
	if len(p.ContactPoints) == 0 {
		errs = append(errs, types.InvalidArgumentf("contact_points must not be empty"))
	}
	if p.Port < 0 || p.Port > 65535 {
		errs = append(errs, types.InvalidArgumentf("port %d out of range", p.Port))
	}
	if p.Consistency != "" {
		if _, err := types.ParseConsistency(p.Consistency); err != nil {
			errs = append(errs, err)
		}
	}
	if p.SerialConsistency != "" {
		c, err := types.ParseConsistency(p.SerialConsistency)
		if err != nil {
			errs = append(errs, err)
		} else if !c.IsSerial() {
			errs = append(errs, types.InvalidArgumentf("serial_consistency must be SERIAL or LOCAL_SERIAL, got %s", c))
		}
	}
	if p.PageSize < 0 {
		errs = append(errs, types.InvalidArgumentf("page_size must not be negative"))
	}
	switch strings.ToLower(p.Compression) {
	case "", "none", "snappy":
	default:
		errs = append(errs, types.InvalidArgumentf("unsupported compression %q", p.Compression))
	}
	if p.ProtocolVersion != 0 && (p.ProtocolVersion < 3 || p.ProtocolVersion > 5) {
		errs = append(errs, types.InvalidArgumentf("protocol_version %d not supported", p.ProtocolVersion))
	}
	if (p.Username == "") != (p.Password == "") {
		errs = append(errs, types.InvalidArgumentf("username and password must be set together"))
	}
	for i, k := range p.Keyspaces.Create {
		if k.Name == "" {
			errs = append(errs, types.InvalidArgumentf("keyspaces.create[%d] has no name", i))
		}
	}
	if (p.SchemaAction == schema.ActionRecreate || p.SchemaAction == schema.ActionRecreateDropUnused) && p.Keyspace == "" {
		errs = append(errs, types.InvalidArgumentf("schema_action %s requires a keyspace", p.SchemaAction))
	}

	return errors.Join(errs...)
}

// ClusterConfig builds the gocql cluster configuration.
func (p *Properties) ClusterConfig() *gocql.ClusterConfig {
	cluster := gocql.NewCluster(p.ContactPoints...)
	cluster.Port = p.Port
	cluster.Keyspace = p.Keyspace
	cluster.ConnectTimeout = p.ConnectTimeout
	cluster.Timeout = p.RequestTimeout
	cluster.PageSize = p.PageSize

	if p.ProtocolVersion != 0 {
		cluster.ProtoVersion = p.ProtocolVersion
	}
	if p.ConnectionsPerHost > 0 {
		cluster.NumConns = p.ConnectionsPerHost
	}
	if c, err := types.ParseConsistency(p.Consistency); err == nil && p.Consistency != "" {
		cluster.Consistency = gocql.Consistency(c)
	}
	if c, err := types.ParseConsistency(p.SerialConsistency); err == nil && c.IsSerial() {
		cluster.SerialConsistency = gocql.SerialConsistency(c)
	}
	if p.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: p.Username,
			Password: p.Password,
		}
	}
	if p.LocalDatacenter != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
			gocql.DCAwareRoundRobinPolicy(p.LocalDatacenter),
		)
	}
	if strings.EqualFold(p.Compression, "snappy") {
		cluster.Compressor = &gocql.SnappyCompressor{}
	}

	return cluster
}

// Connect opens a session on the configured keyspace. If ctx ends before
// the session is ready, Connect returns ctx.Err() and closes the session
// once it opens.
func (p *Properties) Connect(ctx context.Context) (cql.Session, error) {
	return connect(ctx, p.ClusterConfig())
}

// ConnectWithoutKeyspace opens a session not bound to a keyspace, as
// needed for keyspace creation.
func (p *Properties) ConnectWithoutKeyspace(ctx context.Context) (cql.Session, error) {
	cluster := p.ClusterConfig()
	cluster.Keyspace = ""

	return connect(ctx, cluster)
}

func connect(ctx context.Context, cluster *gocql.ClusterConfig) (cql.Session, error) {
	type result struct {
		session *gocql.Session
		err     error
	}

	done := make(chan result, 1)
	go func() {
		session, err := cluster.CreateSession()
		done <- result{session: session, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to connect: %w", r.err)
		}

		return v1.WrapSession(r.session), nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.session != nil {
				r.session.Close()
			}
		}()

		return nil, ctx.Err()
	}
}
