package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/osmpbf"
	"github.com/arloliu/osmpbf/format"
)

func writeInput(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "in.osm.pbf")
	w, err := osmpbf.Create(path, "pbfstat-test")
	require.NoError(t, err)

	enc, err := osmpbf.NewEncoder()
	require.NoError(t, err)
	for id := int64(1); id <= 5; id++ {
		n := enc.CreateNode(format.NodeDense)
		n.SetID(id)
		n.SetLatLon(10, 20)
	}
	way := enc.CreateWay()
	way.SetID(100)
	way.AddRef(1)
	way.AddRef(5)

	payload, err := enc.Flush(nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteBlob(format.BlobData, payload, true))
	require.NoError(t, w.Close())

	return path
}

func TestRun_Stat(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"--workers", "2", "--unpack", writeInput(t)}, &out))

	text := out.String()
	require.Contains(t, text, "program:     pbfstat-test")
	require.Contains(t, text, "blocks:      1")
	require.Contains(t, text, "nodes:       5 (plain 0, dense 5)")
	require.Contains(t, text, "ways:        1")
}

func TestRun_Recode(t *testing.T) {
	in := writeInput(t)
	outPath := filepath.Join(t.TempDir(), "out.osm.pbf")

	var out bytes.Buffer
	require.NoError(t, run([]string{"--out", outPath, "--compression", "zstd", "--nodes", "plain", in}, &out))
	require.Contains(t, out.String(), "written:")

	out.Reset()
	require.NoError(t, run([]string{outPath}, &out))
	require.Contains(t, out.String(), "program:     pbfstat")
	require.Contains(t, out.String(), "nodes:       5 (plain 5, dense 0)")
}

func TestRun_Errors(t *testing.T) {
	in := writeInput(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no input", args: nil},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "nope.pbf")}},
		{name: "bad compression", args: []string{"--out", filepath.Join(t.TempDir(), "o.pbf"), "--compression", "snappy", in}},
		{name: "bad node kind", args: []string{"--out", filepath.Join(t.TempDir(), "o.pbf"), "--nodes", "sparse", in}},
		{name: "unknown flag", args: []string{"--bogus", in}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.Error(t, run(tt.args, &out))
		})
	}
}
