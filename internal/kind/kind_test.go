package kind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdered_PhasesAreMonotonic(t *testing.T) {
	t.Parallel()

	kinds := Ordered()
	require.Len(t, kinds, len(table), "every kind must appear in the generation order")

	last := 0
	for _, k := range kinds {
		assert.GreaterOrEqual(t, k.Phase(), last, "kind %s is out of phase order", k)
		last = k.Phase()
	}
}

func TestHasValidName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind Kind
		name string
		want bool
	}{
		{GameplayAbility, "GA_Fireball", true},
		{GameplayAbility, "GE_Fireball", false},
		{ActorBlueprint, "BTS_Patrol", true},
		{ActorBlueprint, "GoalGenerator_Hunt", true},
		{TaggedDialogueSet, "Greetings", true},
		{TaggedDialogueSet, "", false},
		{ActivityConfiguration, "ActConfig_Guard", true},
	}

	for _, tc := range testCases {
		t.Run(tc.kind.String()+"/"+tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.kind.HasValidName(tc.name))
		})
	}
}

func TestCategoryForName_LongestPrefixWins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NPC Definitions", CategoryForName("NPCDef_Blacksmith"))
	assert.Equal(t, "Widget Blueprints", CategoryForName("WBP_HUD"))
	assert.Equal(t, "Other", CategoryForName("Narrative.Tag"))
}

func TestParse(t *testing.T) {
	t.Parallel()

	k, ok := Parse("gameplayability")
	require.True(t, ok)
	assert.Equal(t, GameplayAbility, k)

	_, ok = Parse("Spaceship")
	assert.False(t, ok)
}
