package testutil

// FakeCommitter is an in-memory page committer that records every call.
// It satisfies alloc.Committer.
type FakeCommitter struct {
	Mem       []byte
	Commits   [][2]int // {off, n} per successful Commit
	Decommits [][2]int // {off, n} per Decommit

	// FailNext, when set, is returned by the next Commit and then cleared.
	FailNext error
}

// NewFakeCommitter wraps mem.
func NewFakeCommitter(mem []byte) *FakeCommitter {
	return &FakeCommitter{Mem: mem}
}

func (f *FakeCommitter) Bytes() []byte { return f.Mem }

func (f *FakeCommitter) Commit(off, n int) error {
	if err := f.FailNext; err != nil {
		f.FailNext = nil
		return err
	}
	f.Commits = append(f.Commits, [2]int{off, n})
	return nil
}

func (f *FakeCommitter) Decommit(off, n int) error {
	f.Decommits = append(f.Decommits, [2]int{off, n})
	return nil
}
