package referral

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	f := NewFields([]string{"Patient Name", "Age", "Patient Name", "Contact"})

	assert.Equal(t, []string{"Patient Name", "Age", "Contact"}, f.Names())
	assert.Equal(t, []string{"Patient Name", "Age", "Contact"}, f.Empty())

	assert.True(t, f.Set("Age", "45"))
	assert.False(t, f.Set("Blood Group", "O+"))
	assert.False(t, f.Has("Blood Group"))
	assert.Equal(t, "", f.Get("Blood Group"))

	assert.Equal(t, "45", f.Get("Age"))
	assert.Equal(t, []string{"Patient Name", "Contact"}, f.Empty())
	assert.Equal(t, []string{"Contact"}, f.EmptyOf([]string{"Age", "Contact"}))
	assert.Equal(t, map[string]string{"Patient Name": "", "Age": "45", "Contact": ""}, f.Map())
}

func TestFields_MarshalJSON(t *testing.T) {
	f := NewFields([]string{"Patient Name", "Age", "Contact"})
	f.Set("Contact", `9876543210 "mobile"`)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"Patient Name":"","Age":"","Contact":"9876543210 \"mobile\""}`, string(data))
}
