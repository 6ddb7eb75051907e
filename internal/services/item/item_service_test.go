package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchPattern(t *testing.T) {
	assert.Equal(t, "%chair%", searchPattern("chair"))
	assert.Equal(t, "%диван%", searchPattern("диван"))

	// Спецсимволы LIKE экранируются, чтобы искаться буквально
	assert.Equal(t, `%100\%%`, searchPattern("100%"))
	assert.Equal(t, `%usb\_c%`, searchPattern("usb_c"))
	assert.Equal(t, `%c:\\temp%`, searchPattern(`c:\temp`))
	assert.Equal(t, `%\\\%\_%`, searchPattern(`\%_`))

	assert.Equal(t, "%%", searchPattern(""))
}
