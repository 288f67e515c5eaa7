package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintComparison(t *testing.T) {
	a := []float32{0.1, 0.2, 0.3, 0.4}
	b := []float32{0.5, 0.6, 0.7, 0.8}
	sum := []float32{0.6, 0.8, 1.0, 1.2}
	product := []float32{0.05, 0.12, 0.21, 0.32}

	var sb strings.Builder
	printComparison(&sb, a, b, product, sum)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Len(t, lines, 8)
	assert.Equal(t, "0:0.1+0.5=0.6", lines[0])
	assert.Equal(t, "  :0.1*0.5=0.05", lines[1])
	assert.Equal(t, "1:0.2+0.6=0.8", lines[2])
	assert.Equal(t, "  :0.2*0.6=0.12", lines[3])
	assert.Equal(t, "3:0.4+0.8=1.2", lines[6])
	assert.Equal(t, "  :0.4*0.8=0.32", lines[7])
}
