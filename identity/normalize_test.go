package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "oak grove", NormalizeName("The Oak Grove"))
	assert.Equal(t, "oak grove", NormalizeName("oak grove"))
	assert.Equal(t, "oak grove", NormalizeName("  THE   Oak\tGrove "))
	assert.Equal(t, "theodore", NormalizeName("Theodore"))
	assert.Equal(t, "oak grove", NormalizeName("The\u00a0Oak\u00a0\u00a0Grove\u00a0"))
}

func TestFloorPlanKey(t *testing.T) {
	a := FloorPlanKey("texas-oak-grove", "The Aria")
	b := FloorPlanKey("texas-oak-grove", "aria")
	c := FloorPlanKey("texas-cedar-park", "The Aria")

	assert.Equal(t, "texas-oak-grove:aria", a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, FloorPlanKey("texas-oak-grove", "The\u00a0Aria"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "New Mexico", TitleCase("new mexico"))
	assert.Equal(t, "North Carolina", TitleCase("NORTH CAROLINA"))
	assert.Equal(t, "Texas", TitleCase("texas"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Texas", CapitalizeFirst("texas"))
	assert.Equal(t, "", CapitalizeFirst(""))
	assert.Equal(t, "New-Mexico Land", CapitalizeWords("new-mexico land"))
}
