package tilegemm

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Candidate is an instance together with its catalog arena index
type Candidate struct {
	Index    int
	Instance *Instance
}

// RankPolicy orders the applicable candidates for a problem; the first
// entry of the result is launched. Implementations must be deterministic.
type RankPolicy interface {
	Rank(d *ProblemDescriptor, cands []Candidate) []Candidate
}

// RankFunc adapts a function to RankPolicy
type RankFunc func(d *ProblemDescriptor, cands []Candidate) []Candidate

// Rank calls f
func (f RankFunc) Rank(d *ProblemDescriptor, cands []Candidate) []Candidate {
	return f(d, cands)
}

// RegistrationOrder ranks by arena index: the first registered applicable
// instance wins
type RegistrationOrder struct{}

// Rank implements RankPolicy
func (RegistrationOrder) Rank(_ *ProblemDescriptor, cands []Candidate) []Candidate {
	out := append([]Candidate(nil), cands...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ExecutionPlan is the result of selection for one invocation: the chosen
// instance, the grid covering the output and the scratch memory the launch
// needs
type ExecutionPlan struct {
	Instance      *Instance
	InstanceIndex int
	Problem       ProblemDescriptor
	Grid          Dim3
	WorkspaceSize int
}

func newExecutionPlan(c Candidate, d *ProblemDescriptor) *ExecutionPlan {
	gx, gy := c.Instance.Plan().Grid(d.M, d.N)
	return &ExecutionPlan{
		Instance:      c.Instance,
		InstanceIndex: c.Index,
		Problem:       *d.Clone(),
		Grid:          Dim3{X: gx, Y: gy, Z: d.Batch * d.KBatch},
		WorkspaceSize: d.WorkspaceSize(),
	}
}

func (p *ExecutionPlan) String() string {
	return fmt.Sprintf("%s grid=(%d,%d,%d) workspace=%d",
		p.Instance.Name(), p.Grid.X, p.Grid.Y, p.Grid.Z, p.WorkspaceSize)
}

// Selector picks an instance from a catalog for a problem
type Selector struct {
	catalog *Catalog
	opts    options
}

// NewSelector creates a selector over catalog
func NewSelector(catalog *Catalog, opts ...Option) *Selector {
	return &Selector{catalog: catalog, opts: buildOptions(opts)}
}

// Candidates validates d and splits the instances registered under its key
// into those that accept it, ranked, and the rejections with reasons
func (s *Selector) Candidates(d *ProblemDescriptor) ([]Candidate, []Rejection, error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}

	var rejections []Rejection
	accepted := lo.Filter(s.catalog.candidates(d.Key()), func(c Candidate, _ int) bool {
		if err := c.Instance.Check(d); err != nil {
			rejections = append(rejections, Rejection{Instance: c.Instance.Name(), Reason: err.Error()})
			return false
		}
		return true
	})
	return s.opts.rank.Rank(d, accepted), rejections, nil
}

// Select returns an execution plan for d, or a NoApplicableInstance error
// listing why each candidate refused it
func (s *Selector) Select(d *ProblemDescriptor) (*ExecutionPlan, error) {
	ranked, rejections, err := s.Candidates(d)
	if err != nil {
		return nil, err
	}

	log := s.opts.log().WithFields(logrus.Fields{
		"key":   d.Key().String(),
		"shape": fmt.Sprintf("%dx%dx%d", d.M, d.N, d.K),
	})
	for _, r := range rejections {
		log.WithField("instance", r.Instance).Debugf("rejected: %s", r.Reason)
	}

	if len(ranked) == 0 {
		return nil, &Error{
			Kind: KindNoApplicableInstance,
			Op:   "Select",
			Message: fmt.Sprintf("none of %d instances for %s accepts %dx%dx%d",
				len(rejections), d.Key(), d.M, d.N, d.K),
			Context: rejections,
		}
	}

	plan := newExecutionPlan(ranked[0], d)
	log.WithField("instance", plan.Instance.Name()).Debug("selected")
	return plan, nil
}
