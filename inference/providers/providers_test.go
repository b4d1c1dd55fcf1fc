package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := map[string]Backend{
		"":         CPUBackend,
		"cpu":      CPUBackend,
		" CUDA ":   CUDABackend,
		"CoreML":   CoreMLBackend,
		"openvino": OpenVINOBackend,
	}
	for in, want := range tests {
		got, err := ParseBackend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBackend("tensorrt")
	assert.EqualError(t, err, `unsupported execution provider "tensorrt"`)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{Backend: CUDABackend, IntraOpThreads: 4}.Validate())
	assert.Error(t, Config{Backend: "tpu"}.Validate())
	assert.Error(t, Config{InterOpThreads: -1}.Validate())
}

func TestCoreMLFlags(t *testing.T) {
	flags, err := coreMLFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), flags)

	flags, err = coreMLFlags(map[string]string{"flags": "5"})
	require.NoError(t, err)
	assert.Equal(t, uint32(5), flags)

	_, err = coreMLFlags(map[string]string{"flags": "gpu"})
	assert.Error(t, err)
}
