package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(DefaultPatterns())
	require.NoError(t, err)
	return table
}

func TestDetectByAddress(t *testing.T) {
	table := newDefaultTable(t)

	assert.Equal(t, "containersuper", table.Detect("kunde@firma.de", "sales@containersuper.de", "Anfrage 40ft"))
	assert.Equal(t, "boxdepot", table.Detect("info@boxdepot.eu", "someone@gmail.com", "Re: offer"))
	assert.Equal(t, "tradecube", table.Detect("buyer@example.com", "quotes@tradecube.io", ""))
}

func TestDetectBySubject(t *testing.T) {
	table := newDefaultTable(t)

	assert.Equal(t, "containersuper", table.Detect("a@b.com", "c@d.com", "Your Container Super quote"))
	assert.Equal(t, "boxdepot", table.Detect("a@b.com", "c@d.com", "BOX DEPOT invoice"))
}

func TestDetectCaseInsensitive(t *testing.T) {
	table := newDefaultTable(t)

	assert.Equal(t, "containersuper", table.Detect("Kunde@CONTAINERSUPER.COM", "", ""))
}

func TestDetectUnknown(t *testing.T) {
	table := newDefaultTable(t)

	assert.Equal(t, Unknown, table.Detect("someone@gmail.com", "other@yahoo.com", "hello"))
	assert.Equal(t, Unknown, table.Detect("", "", ""))
}

func TestNewTableBadPattern(t *testing.T) {
	_, err := NewTable(map[string][]string{"broken": {"("}})
	assert.Error(t, err)
}
