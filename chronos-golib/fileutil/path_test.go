package fileutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	require.Equal(t, "/data/2020/01", Join("/data", "2020", "01"))
	require.Equal(t, "s3://bucket/prefix/2020/01", Join("s3://bucket/prefix", "2020", "01"))
	require.Equal(t, "", Join())
}

func TestDir(t *testing.T) {
	require.Equal(t, "/data/2020", Dir("/data/2020/01"))
	require.Equal(t, "s3://bucket/prefix", Dir("s3://bucket/prefix/2020"))
}

func TestBase(t *testing.T) {
	require.Equal(t, "data.csv", Base("/data/2020/01/data.csv"))
	require.Equal(t, "01", Base("s3://bucket/2020/01/"))
}
