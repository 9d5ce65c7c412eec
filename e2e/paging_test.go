//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextAndPreviousPage(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready())

	tf.Reset()
	tf.SendKeys(KeyNext)
	require.True(t, tf.OutputContainsPlain("Page 2 of", 5*time.Second), "l should go to the next page")
	require.True(t, tf.SeePlain("11."), "second page numbering starts at 11")

	tf.Reset()
	tf.SendKeys(KeyPrev)
	require.True(t, tf.OutputContainsPlain("Page 1 of", 5*time.Second), "h should go back")
}

func TestPageSizeResetsToFirstPage(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready())

	tf.SendKeys(KeyNext)
	require.True(t, tf.OutputContainsPlain("Page 2 of", 5*time.Second))

	tf.Reset()
	tf.SendKeys("2")
	require.True(t, tf.OutputContainsPlain("Page 1 of 3", 5*time.Second), "25 per page over the demo catalog")
}

func TestPageSizesFromConfig(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	tf.WriteConfig("[query]\npage_sizes = [5, 50]\ndefault_page_size = 5\n")

	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready())
	require.True(t, tf.SeePlain("[1] 5"))
	require.True(t, tf.SeePlain("[2] 50"))
}
