package yml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_ExpandScalars(t *testing.T) {
	node, err := Parse([]byte(`
store:
  dsn: ${DSN}
kinds: ["${KIND}", other]
exempt:
  - ${KIND}
`))
	require.NoError(t, err)
	node.ExpandScalars(func(value string) string {
		switch value {
		case "${DSN}":
			return "postgres://db"
		case "${KIND}":
			return "status_change"
		}
		return value
	})

	var decoded struct {
		Store struct {
			DSN string `yaml:"dsn"`
		} `yaml:"store"`
		Kinds  []string `yaml:"kinds"`
		Exempt []string `yaml:"exempt"`
	}
	require.NoError(t, node.Decode(&decoded))
	assert.Equal(t, "postgres://db", decoded.Store.DSN)
	assert.Equal(t, []string{"status_change", "other"}, decoded.Kinds)
	assert.Equal(t, []string{"status_change"}, decoded.Exempt)

	store := node.Lookup("store")
	require.NotNil(t, store)
	var keys []string
	require.NoError(t, store.Pairs(func(key string, _ *Node) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"dsn"}, keys)
	assert.Nil(t, node.Lookup("missing"))
}
