package console

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manjussha/allocheck/internal/allocation"
)

func TestBanner_Plain(t *testing.T) {
	var buf bytes.Buffer
	Banner(&buf, "v1.2.3", false)
	out := buf.String()
	assert.Contains(t, out, "allocheck v1.2.3")
	assert.NotContains(t, out, "\033[")
}

func TestDashboardURLs_EndsWithLocalhost(t *testing.T) {
	urls := DashboardURLs("9090")
	require.NotEmpty(t, urls)
	assert.Equal(t, "http://localhost:9090", urls[len(urls)-1])
}

func TestPromptAddress(t *testing.T) {
	var out bytes.Buffer
	addr, err := PromptAddress(bufio.NewReader(strings.NewReader("  0xabc \n")), &out)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", addr)
	assert.Contains(t, out.String(), "Wallet address")

	addr, err = PromptAddress(bufio.NewReader(strings.NewReader("0xdef")), &out)
	require.NoError(t, err)
	assert.Equal(t, "0xdef", addr)

	_, err = PromptAddress(bufio.NewReader(strings.NewReader("")), &out)
	assert.Error(t, err)
}

func TestTierColor(t *testing.T) {
	assert.Equal(t, "Elite", TierColor(allocation.TierElite, "Elite", false))
	assert.Equal(t, "\033[33mMid\033[0m", TierColor(allocation.TierMid, "Mid", true))
	assert.Equal(t, "\033[31mLow\033[0m", TierColor(allocation.TierLow, "Low", true))
}
