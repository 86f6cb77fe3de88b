package pipeline

import (
	"context"

	"github.com/vk/axisem/internal/comm"
	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
	"github.com/vk/axisem/internal/solver"
	"github.com/vk/axisem/internal/stf"
	"github.com/vk/axisem/internal/subsystems"
)

// Parameter keys read by the pipeline itself.
const (
	KeyDeltaT            = "TIME_DELTA_T"
	KeyDeltaTFactor      = "TIME_DELTA_T_FACTOR"
	KeyDiagnosePreloop   = "DEVELOP_DIAGNOSE_PRELOOP"
	KeyVerbose           = "OPTION_VERBOSE"
	KeyLoopInfoInterval  = "OPTION_LOOP_INFO_INTERVAL"
	KeyStabilityInterval = "OPTION_STABILITY_INTERVAL"
)

// MinDeltaT is the threshold below which TIME_DELTA_T and
// TIME_DELTA_T_FACTOR count as unset.
const MinDeltaT = 1e-12

// ResolveDeltaT picks the user time step when it is above MinDeltaT and
// the mesh time step otherwise, then applies the factor when it is above
// MinDeltaT.
func ResolveDeltaT(params *config.Parameters, meshDeltaT float64) (float64, error) {
	user, err := params.FloatOr(KeyDeltaT, -1)
	if err != nil {
		return 0, err
	}
	factor, err := params.FloatOr(KeyDeltaTFactor, 1)
	if err != nil {
		return 0, err
	}
	dt := meshDeltaT
	if user > MinDeltaT {
		dt = user
	}
	if factor > MinDeltaT {
		dt *= factor
	}
	if !(dt > MinDeltaT) {
		return 0, &config.KeyError{Key: KeyDeltaT, Err: config.ErrInvalidValue}
	}
	return dt, nil
}

// DefaultStages returns the preloop in its fixed order.
func DefaultStages() []Stage {
	return []Stage{
		{
			Name: "Exodus", Needs: []string{Input}, Provides: []string{"exodus", "attParams"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.Exodus, p.AttParams, err = subsystems.BuildExodus(p.Params)
				return err
			},
		},
		{
			Name: "NrField", Needs: []string{"exodus"}, Provides: []string{"nrField"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.NrField, err = subsystems.BuildNrField(p.Params, p.Exodus)
				return err
			},
		},
		{
			Name: "Source", Needs: []string{Input}, Provides: []string{"source"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.Source, err = subsystems.BuildSource(p.Params)
				return err
			},
		},
		{
			Name: "3D Models", Needs: []string{"exodus", "source"}, Provides: []string{"volumetric", "geometric", "oceanLoad"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.Models3D, err = subsystems.BuildModels3D(p.Params, p.Exodus, p.Source)
				return err
			},
		},
		{
			Name:     "Mesh Definition",
			Needs:    []string{"exodus", "nrField", "source", "volumetric", "geometric", "oceanLoad"},
			Provides: []string{"mesh"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.Mesh, err = subsystems.DefineMesh(p.Params, p.Exodus, p.NrField, p.Source, p.Models3D)
				return err
			},
		},
		{
			Name: "Unweighted Mesh", Needs: []string{"mesh"}, Provides: []string{"meshUnweighted"},
			Run: func(_ context.Context, env *Env, p *Preloop) (err error) {
				p.MeshUnweighted, err = p.Mesh.BuildUnweighted(env.Comm.Rank(), env.Comm.Size())
				return err
			},
		},
		{
			Name: "Initialize FFT", Needs: []string{"meshUnweighted"}, Provides: []string{"staticResources"},
			Run: func(ctx context.Context, env *Env, p *Preloop) error {
				return env.Resources.Acquire(ctx, p.MeshUnweighted.MaxNr())
			},
		},
		{
			Name: "DT", Needs: []string{"meshUnweighted"}, Provides: []string{"dt"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.DeltaT, err = ResolveDeltaT(p.Params, p.MeshUnweighted.DeltaT())
				return err
			},
		},
		{
			Name: "Attenuation", Needs: []string{"dt", "attParams"}, Provides: []string{"attBuilder"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.AttBuilder, err = subsystems.BuildAttenuation(p.AttParams, p.DeltaT)
				return err
			},
		},
		{
			Name: "Weighted Mesh", Needs: []string{"meshUnweighted", "attBuilder"}, Provides: []string{"meshWeighted"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.MeshWeighted, err = p.MeshUnweighted.Weigh(p.AttBuilder)
				return err
			},
		},
		{
			Name: "Source Time Function", Needs: []string{"dt"}, Provides: []string{"stf"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.STF, err = stf.Build(p.Params, p.DeltaT)
				return err
			},
		},
		{
			Name: "Receivers", Needs: []string{"source"}, Provides: []string{"receivers"},
			Run: func(_ context.Context, _ *Env, p *Preloop) (err error) {
				p.Receivers, err = subsystems.BuildReceivers(p.Params, p.Source)
				return err
			},
		},
		{
			Name:     "Computational Domain",
			Needs:    []string{"meshWeighted", "source", "stf", "receivers"},
			Provides: []string{"domain"},
			Run: func(_ context.Context, _ *Env, p *Preloop) error {
				p.Domain = domain.New()
				return nil
			},
			Substages: []Stage{
				{Name: "Release Mesh", Level: 1, Run: func(_ context.Context, env *Env, p *Preloop) error {
					return p.MeshWeighted.Release(p.Domain, env.Resources)
				}},
				{Name: "Release Source", Level: 1, Run: func(_ context.Context, _ *Env, p *Preloop) error {
					return p.Source.Release(p.Domain, p.MeshWeighted)
				}},
				{Name: "Release STF", Level: 1, Run: func(_ context.Context, _ *Env, p *Preloop) error {
					return p.STF.Release(p.Domain)
				}},
				{Name: "Release Receivers", Level: 1, Run: func(_ context.Context, _ *Env, p *Preloop) error {
					return p.Receivers.Release(p.Domain, p.MeshWeighted)
				}},
				{Name: "Verbose", Level: 1, Run: printVerbose},
			},
		},
		{
			Name: "Newmark", Level: Untimed, Needs: []string{"domain"}, Provides: []string{"driver"},
			Run: func(_ context.Context, _ *Env, p *Preloop) error {
				info, err := p.Params.IntOr(KeyLoopInfoInterval, 1000)
				if err != nil {
					return err
				}
				stab, err := p.Params.IntOr(KeyStabilityInterval, 1000)
				if err != nil {
					return err
				}
				nm, err := solver.NewNewmark(p.Domain, info, stab)
				if err != nil {
					return err
				}
				p.Driver = nm
				return nil
			},
		},
	}
}

// printVerbose writes the subsystem and domain summaries on the root rank
// when OPTION_VERBOSE is set.
func printVerbose(_ context.Context, env *Env, p *Preloop) error {
	verbose, err := p.Params.BoolOr(KeyVerbose, false)
	if err != nil || !verbose || !comm.IsRoot(env.Comm) {
		return err
	}
	env.Stream.Printf("%s", p.Verbose())
	return env.Stream.Flush()
}
