package schema

import (
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// ReplicationStrategy is the keyspace replication class.
type ReplicationStrategy int

const (
	SimpleStrategy ReplicationStrategy = iota
	NetworkTopologyStrategy
)

func (s ReplicationStrategy) String() string {
	if s == NetworkTopologyStrategy {
		return "NetworkTopologyStrategy"
	}

	return "SimpleStrategy"
}

// CreateKeyspaceSpec renders CREATE KEYSPACE.
type CreateKeyspaceSpec struct {
	name              types.Identifier
	ifNotExists       bool
	strategy          ReplicationStrategy
	replicationFactor int
	dataCenters       map[string]int
	durableWrites     *bool
}

// CreateKeyspace starts a CREATE KEYSPACE with SimpleStrategy and a
// replication factor of 1.
func CreateKeyspace(name string) *CreateKeyspaceSpec {
	return &CreateKeyspaceSpec{name: types.ParseIdentifier(name), replicationFactor: 1}
}

// IfNotExists adds IF NOT EXISTS.
func (s *CreateKeyspaceSpec) IfNotExists() *CreateKeyspaceSpec {
	s.ifNotExists = true
	return s
}

// WithSimpleReplication uses SimpleStrategy with the replication factor.
func (s *CreateKeyspaceSpec) WithSimpleReplication(factor int) *CreateKeyspaceSpec {
	s.strategy = SimpleStrategy
	s.replicationFactor = factor
	s.dataCenters = nil
	return s
}

// WithNetworkReplication uses NetworkTopologyStrategy with replication
// factors per data center.
func (s *CreateKeyspaceSpec) WithNetworkReplication(dataCenters map[string]int) *CreateKeyspaceSpec {
	s.strategy = NetworkTopologyStrategy
	s.dataCenters = make(map[string]int, len(dataCenters))
	for dc, rf := range dataCenters {
		s.dataCenters[dc] = rf
	}
	return s
}

// WithDurableWrites sets durable_writes.
func (s *CreateKeyspaceSpec) WithDurableWrites(durable bool) *CreateKeyspaceSpec {
	s.durableWrites = &durable
	return s
}

// Name returns the keyspace name.
func (s *CreateKeyspaceSpec) Name() types.Identifier { return s.name }

// CQL renders the statement.
func (s *CreateKeyspaceSpec) CQL() string {
	var b strings.Builder
	b.WriteString("CREATE KEYSPACE ")
	b.WriteString(ifNotExists(s.ifNotExists))
	b.WriteString(s.name.CQL())
	b.WriteString(" WITH replication = ")
	b.WriteString(replication(s.strategy, s.replicationFactor, s.dataCenters))
	if s.durableWrites != nil {
		b.WriteString(" AND durable_writes = ")
		b.WriteString(literal(*s.durableWrites))
	}
	b.WriteString(";")

	return b.String()
}

// Statements implements Spec.
func (s *CreateKeyspaceSpec) Statements() []string { return []string{s.CQL()} }

func replication(strategy ReplicationStrategy, factor int, dataCenters map[string]int) string {
	m := map[string]any{"class": strategy.String()}
	if strategy == NetworkTopologyStrategy {
		for dc, rf := range dataCenters {
			m[dc] = rf
		}
	} else {
		m["replication_factor"] = factor
	}

	return mapLiteral(m)
}

// AlterKeyspaceSpec renders ALTER KEYSPACE.
type AlterKeyspaceSpec struct {
	name          types.Identifier
	replication   string
	durableWrites *bool
}

// AlterKeyspace starts an ALTER KEYSPACE.
func AlterKeyspace(name string) *AlterKeyspaceSpec {
	return &AlterKeyspaceSpec{name: types.ParseIdentifier(name)}
}

// WithSimpleReplication changes the replication to SimpleStrategy.
func (s *AlterKeyspaceSpec) WithSimpleReplication(factor int) *AlterKeyspaceSpec {
	s.replication = replication(SimpleStrategy, factor, nil)
	return s
}

// WithNetworkReplication changes the replication to NetworkTopologyStrategy.
func (s *AlterKeyspaceSpec) WithNetworkReplication(dataCenters map[string]int) *AlterKeyspaceSpec {
	s.replication = replication(NetworkTopologyStrategy, 0, dataCenters)
	return s
}

// WithDurableWrites sets durable_writes.
func (s *AlterKeyspaceSpec) WithDurableWrites(durable bool) *AlterKeyspaceSpec {
	s.durableWrites = &durable
	return s
}

// CQL renders the statement.
func (s *AlterKeyspaceSpec) CQL() string {
	var opts []string
	if s.replication != "" {
		opts = append(opts, "replication = "+s.replication)
	}
	if s.durableWrites != nil {
		opts = append(opts, "durable_writes = "+literal(*s.durableWrites))
	}

	return "ALTER KEYSPACE " + s.name.CQL() + " WITH " + strings.Join(opts, " AND ") + ";"
}

// Statements implements Spec. An alter without changes renders nothing.
func (s *AlterKeyspaceSpec) Statements() []string {
	if s.replication == "" && s.durableWrites == nil {
		return nil
	}

	return []string{s.CQL()}
}

// DropKeyspaceSpec renders DROP KEYSPACE.
type DropKeyspaceSpec struct {
	name     types.Identifier
	ifExists bool
}

// DropKeyspace starts a DROP KEYSPACE.
func DropKeyspace(name string) *DropKeyspaceSpec {
	return &DropKeyspaceSpec{name: types.ParseIdentifier(name)}
}

// IfExists adds IF EXISTS.
func (s *DropKeyspaceSpec) IfExists() *DropKeyspaceSpec {
	s.ifExists = true
	return s
}

// CQL renders the statement.
func (s *DropKeyspaceSpec) CQL() string {
	return "DROP KEYSPACE " + ifExists(s.ifExists) + s.name.CQL() + ";"
}

// Statements implements Spec.
func (s *DropKeyspaceSpec) Statements() []string { return []string{s.CQL()} }
