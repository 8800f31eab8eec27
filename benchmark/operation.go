package benchmark

import (
	"math/rand"
	"time"
)

// OpKind distinguishes the two operation variants
type OpKind uint8

const (
	OpWrite OpKind = iota
	OpRead
)

func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	default:
		return "unknown"
	}
}

// Operation is a single scheduled call against a database.
// Doc is set only for writes.
type Operation struct {
	Kind OpKind
	Doc  *Document
}

// WriteOp returns a write operation carrying doc
func WriteOp(doc Document) Operation {
	return Operation{Kind: OpWrite, Doc: &doc}
}

// ReadOp returns a read operation
func ReadOp() Operation {
	return Operation{Kind: OpRead}
}

// Schedule is the ordered list of operations executed in one run
type Schedule []Operation

// Len returns the number of operations
func (s Schedule) Len() int {
	return len(s)
}

// Counts returns how many reads and writes the schedule holds
func (s Schedule) Counts() (reads, writes int) {
	for _, op := range s {
		if op.Kind == OpRead {
			reads++
		} else {
			writes++
		}
	}
	return reads, writes
}

// NewRand returns a rand source for Plan; seed 0 means time-seeded
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Plan builds a schedule of exactly opCount operations for the scenario.
// Reads are floor(opCount*ReadPct/100), the rest are writes with freshly
// generated documents; the result is shuffled with rng.
func Plan(opCount uint, sc WorkloadScenario, docSizeKB uint, rng *rand.Rand) (Schedule, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	readOps := int(uint64(opCount) * uint64(sc.ReadPct) / 100)
	writeOps := int(opCount) - readOps

	ops := make(Schedule, 0, opCount)
	for i := 0; i < writeOps; i++ {
		ops = append(ops, WriteOp(GenerateDocument(docSizeKB)))
	}
	for i := 0; i < readOps; i++ {
		ops = append(ops, ReadOp())
	}

	rng.Shuffle(len(ops), func(i, j int) {
		ops[i], ops[j] = ops[j], ops[i]
	})
	return ops, nil
}
