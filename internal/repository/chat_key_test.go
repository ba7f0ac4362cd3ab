package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIndividualPairKeyIsOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, IndividualPairKey(a, b), IndividualPairKey(b, a))
	assert.NotEqual(t, IndividualPairKey(a, b), IndividualPairKey(a, uuid.New()))
}

func TestIndividualPairKeySortsLexicographically(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	assert.Equal(t, a.String()+":"+b.String(), IndividualPairKey(b, a))
}
