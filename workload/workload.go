// Package workload generates mixed read/write instruction streams against a
// Zipfian-distributed keyspace, for driving the eval package.
package workload

import (
	"fmt"
	"math/rand"
	"time"
)

// OperationType identifies what an Instruction does.
type OperationType string

const (
	OpRead  OperationType = "read"
	OpWrite OperationType = "write"
)

// Instruction is a single operation to replay against a register.Register.
type Instruction struct {
	Key   string
	Type  OperationType
	Value []byte
	Delay time.Duration
}

// Generator produces a workload over the keys "key-0" through
// "key-<KeyspaceSize>" (KeyspaceSize+1 distinct keys), drawn from a Zipfian
// distribution of skew ZipfianS, mixing reads and writes according to
// ReadFraction.
type Generator struct {
	ReadFraction     float64
	ZipfianS         float64
	KeyspaceSize     uint64
	ValueSize        int
	OperationCount   int
	InstructionDelay time.Duration

	rng *rand.Rand
}

// NewGenerator returns a Generator with reasonable defaults: 80% reads, a
// mildly skewed Zipfian distribution with KeyspaceSize 1000, 1000 operations,
// 16-byte values, and no inter-instruction delay. seed makes the generated
// sequence reproducible.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		ReadFraction:   0.8,
		ZipfianS:       1.01,
		KeyspaceSize:   1000,
		ValueSize:      16,
		OperationCount: 1000,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// Generate produces OperationCount instructions according to g's parameters.
func (g *Generator) Generate() []Instruction {
	zipf := rand.NewZipf(g.rng, g.ZipfianS, 1, g.KeyspaceSize)

	instructions := make([]Instruction, g.OperationCount)
	for i := range instructions {
		key := fmt.Sprintf("key-%d", zipf.Uint64())

		op := OpRead
		if g.rng.Float64() >= g.ReadFraction {
			op = OpWrite
		}

		var value []byte
		if op == OpWrite {
			value = make([]byte, g.ValueSize)
			g.rng.Read(value)
		}

		instructions[i] = Instruction{
			Key:   key,
			Type:  op,
			Value: value,
			Delay: g.InstructionDelay,
		}
	}
	return instructions
}
