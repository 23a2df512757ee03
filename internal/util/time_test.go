package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTimezone(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "local", timezone: "Local", wantErr: false},
		{name: "empty defaults to local", timezone: "", wantErr: false},
		{name: "utc", timezone: "UTC", wantErr: false},
		{name: "named zone", timezone: "Asia/Shanghai", wantErr: false},
		{name: "invalid zone", timezone: "Not/AZone", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &TimeProvider{}
			err := provider.SetTimezone(tt.timezone)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, provider.Location())
		})
	}
}

func TestTimeProviderFormat(t *testing.T) {
	provider := &TimeProvider{}
	require.NoError(t, provider.SetTimezone("UTC"))

	moment := time.Date(2024, time.June, 1, 8, 30, 0, 0, time.FixedZone("UTC+8", 8*3600))
	assert.Equal(t, "2024-06-01 00:30:00", provider.Format(moment, "2006-01-02 15:04:05"))
	assert.Equal(t, "2024-06-01", provider.In(moment).Format(DateLayout))
}

func TestGetTimeProviderDefaults(t *testing.T) {
	provider := GetTimeProvider()
	require.NotNil(t, provider)
	assert.NotNil(t, provider.Location())
	assert.WithinDuration(t, time.Now(), provider.Now(), 5*time.Second)
}
