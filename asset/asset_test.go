package asset

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetManager(t *testing.T) {
	am := NewManager()

	t.Run("GetText", func(t *testing.T) {
		text, err := am.GetText("loading_messages.txt")
		assert.NoError(t, err)
		assert.NotEmpty(t, text)

		_, err = am.GetText("non_existent.txt")
		assert.Error(t, err)
	})

	t.Run("LoadingMessages", func(t *testing.T) {
		lines := am.LoadingMessages()
		require.NotEmpty(t, lines)
		for _, line := range lines {
			assert.NotEmpty(t, line)
			assert.NotEqual(t, '#', rune(line[0]))
		}
	})

	t.Run("GetModel", func(t *testing.T) {
		model, err := am.GetModel("facefinder")
		assert.NoError(t, err)
		assert.NotEmpty(t, model)

		_, err = am.GetModel("non_existent")
		assert.Error(t, err)
	})

	t.Run("WebFS", func(t *testing.T) {
		web := am.WebFS()
		for _, name := range []string{"index.html", "app.js", "style.css"} {
			data, err := fs.ReadFile(web, name)
			assert.NoError(t, err, name)
			assert.NotEmpty(t, data, name)
		}
	})
}
