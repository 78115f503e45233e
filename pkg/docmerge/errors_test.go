package docmerge

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeError(t *testing.T) {
	tests := []struct {
		name string
		err  *MergeError
		want string
	}{
		{
			name: "kind only",
			err:  NewMergeError(AssemblyError, "", "", nil),
			want: "assembly error",
		},
		{
			name: "with part and message",
			err:  NewMergeError(MalformedPackage, "word/document.xml", "failed to parse", nil),
			want: "malformed package in 'word/document.xml': failed to parse",
		},
		{
			name: "with cause",
			err:  NewMergeError(RelationshipTargetMissing, "word/media/a.png", "no source", errors.New("boom")),
			want: "relationship target missing in 'word/media/a.png': no source: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMergeErrorIs(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("loading cover: %w", malformed(DocumentPart, "failed to parse", cause))

	assert.True(t, errors.Is(err, ErrMalformedPackage))
	assert.True(t, errors.Is(err, &MergeError{Kind: MalformedPackage, Part: DocumentPart}))
	assert.False(t, errors.Is(err, &MergeError{Kind: MalformedPackage, Part: DocumentRelsPart}))
	assert.False(t, errors.Is(err, ErrAssemblyError))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsKind(err, MalformedPackage))
	assert.False(t, IsKind(errors.New("plain"), MalformedPackage))

	var me *MergeError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, DocumentPart, me.Part)
}

func TestErrorKindFatal(t *testing.T) {
	assert.True(t, MalformedPackage.Fatal())
	assert.True(t, InvariantViolation.Fatal())
	assert.True(t, AssemblyError.Fatal())
	assert.False(t, BoundaryNotFound.Fatal())
	assert.False(t, RelationshipTargetMissing.Fatal())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())
	assert.Equal(t, "no errors", m.Error())

	m.Add(nil)
	assert.Equal(t, 0, m.Len())

	first := NewMergeError(InvariantViolation, DocumentPart, "first", nil)
	m.Add(first)
	assert.Same(t, first, m.Err())

	m.Addf("second %d", 2)
	require.Equal(t, 2, m.Len())
	assert.True(t, strings.HasPrefix(m.Error(), "2 errors occurred:"))
	assert.Contains(t, m.Error(), "[2] second 2")
	assert.True(t, errors.Is(m.Err(), ErrInvariantViolation))
}

func TestWithContext(t *testing.T) {
	assert.NoError(t, WithContext(nil, "merge", nil))

	err := WithContext(ErrBoundaryNotFound, "merge", map[string]interface{}{"version": "3"})
	assert.Equal(t, "merge [version=3]: boundary not found", err.Error())
	assert.True(t, errors.Is(err, ErrBoundaryNotFound))

	assert.Equal(t, "load: assembly error", WithContext(ErrAssemblyError, "load", nil).Error())
}

func TestRecoverError(t *testing.T) {
	assert.EqualError(t, RecoverError("oops"), "panic recovered: oops")
	assert.EqualError(t, RecoverError(42), "panic recovered: 42")
	assert.True(t, errors.Is(RecoverError(ErrAssemblyError), ErrAssemblyError))
}
