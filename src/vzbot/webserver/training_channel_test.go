package webserver

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTrainingChannelRejectsMissingObjects(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	cases := []struct {
		name string
		body gin.H
	}{
		{"no student", gin.H{"primaryTrainer": gin.H{"discordUid": "2"}}},
		{"no primaryTrainer", gin.H{"student": gin.H{"discordUid": "1"}}},
		{"empty body", gin.H{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, g, "/create_training_channel", testSecret, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing required student or primaryTrainer object", decodeBody(t, w)["error"])
		})
	}
}

func TestCreateTrainingChannelRejectsUnusableStudentUID(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	for _, uid := range []interface{}{nil, "", "null", "None"} {
		w := doJSON(t, g, "/create_training_channel", testSecret, gin.H{
			"student":        gin.H{"discordUid": uid, "firstName": "A", "lastName": "B", "cid": "1"},
			"primaryTrainer": gin.H{"discordUid": "2"},
		})
		require.Equal(t, http.StatusBadRequest, w.Code, "uid %v must be rejected", uid)
		assert.Equal(t, "student.discordUid is required and must be provided", decodeBody(t, w)["error"])
	}
}

func TestCreateTrainingChannelRejectsMissingNameOrCID(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	w := doJSON(t, g, "/create_training_channel", testSecret, gin.H{
		"student":        gin.H{"discordUid": "1", "firstName": "A", "lastName": "B"},
		"primaryTrainer": gin.H{"discordUid": "2"},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "student.firstName, student.lastName and student.cid are required",
		decodeBody(t, w)["error"])
}

func TestCreateTrainingChannelFailsWhenBridgeNotReady(t *testing.T) {
	g, _ := newTestServer(t, `{}`)

	w := doJSON(t, g, "/create_training_channel", testSecret, gin.H{
		"student":        gin.H{"discordUid": "1", "firstName": "Jane", "lastName": "Doe", "cid": 1234567},
		"primaryTrainer": gin.H{"discordUid": "2"},
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create training channel", decodeBody(t, w)["error"])
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "jane-doe-1234567", slugify("Jane Doe 1234567"))
	assert.Equal(t, "jane-doe-1234567", slugify("Jane-Doe-1234567"))
	assert.Equal(t, "oconnor-smith-99", slugify("O'Connor   Smith! 99"))
	assert.Equal(t, "a-b", slugify("  a_b  "))
}

func TestNormalizeUID(t *testing.T) {
	assert.Equal(t, "123", normalizeUID("123"))
	assert.Equal(t, "123", normalizeUID(float64(123)))
	assert.Equal(t, "", normalizeUID(nil))
	assert.Equal(t, "", normalizeUID("null"))
	assert.Equal(t, "", normalizeUID("None"))
	assert.Equal(t, "", normalizeUID("  "))
}
