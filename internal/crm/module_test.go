package crm

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcileConfig struct {
	timezone  string
	region    string
	rulesFile string
}

func (c reconcileConfig) GetLookbackDays() int        { return 90 }
func (c reconcileConfig) GetCustomerLimit() int       { return 300 }
func (c reconcileConfig) GetRulesFile() string        { return c.rulesFile }
func (c reconcileConfig) GetDispatchTimezone() string { return c.timezone }
func (c reconcileConfig) GetPhoneRegion() string      { return c.region }

func TestLoadRules_Defaults(t *testing.T) {
	rules, err := LoadRules(reconcileConfig{timezone: "America/Mexico_City", region: "MX"})
	require.NoError(t, err)

	assert.Equal(t, "America/Mexico_City", rules.Location.String())
	assert.Equal(t, time.Hour, rules.DispatchInterval)
	assert.True(t, rules.ExpectsAppointment("appointment"))
}

func TestLoadRules_FileOverridesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: America/Bogota\nappointmentIntents: [VISIT]\n"), 0o600))

	rules, err := LoadRules(reconcileConfig{timezone: "America/Mexico_City", region: "MX", rulesFile: path})
	require.NoError(t, err)

	assert.Equal(t, "America/Bogota", rules.Location.String())
	assert.True(t, rules.ExpectsAppointment("VISIT"))
	assert.False(t, rules.ExpectsAppointment("APPOINTMENT"))
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(reconcileConfig{timezone: "Mars/Olympus", region: "MX"})
	assert.Error(t, err)

	_, err = LoadRules(reconcileConfig{timezone: "UTC", region: "MX", rulesFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
