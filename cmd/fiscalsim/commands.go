package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpgo/fiscal-projection/internal/comparison"
	"github.com/rpgo/fiscal-projection/internal/output"
	"github.com/spf13/cobra"
)

func newPoliciesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List catalog base policies and reforms",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			r := &output.Report{Title: "Policy catalog"}
			for _, p := range a.engine.Policies() {
				r.Policies = append(r.Policies, output.CatalogEntry{ID: p.ID, Name: p.Name, Kind: string(p.Params.Kind()), Description: p.Description})
			}
			for _, rf := range a.engine.Reforms() {
				r.Reforms = append(r.Reforms, output.CatalogEntry{ID: rf.ID, Name: rf.Name, Description: rf.Description})
			}
			return a.write(r)
		}),
	}
}

func newProjectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "project",
		Short: "Run one uncached Monte Carlo projection",
		Long:  "project runs --iterations draws of the scenario built from --policy and --reform.\nWithout --seed the run draws from process entropy and is not reproducible.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			sc, err := a.scenario(cmd, a.policy, a.reforms)
			if err != nil {
				return err
			}
			stats, err := a.engine.RunProjection(cmd.Context(), sc.Composition.Params, a.iterations, a.horizon, a.seedFlag(cmd))
			if err != nil {
				return err
			}
			sc.Stats = stats
			sc.Trajectory = a.engine.Trajectory(stats)
			return a.write(&output.Report{Title: "Projection", Scenarios: []output.ScenarioReport{sc}})
		}),
	}
}

func newOutlookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "outlook",
		Short: "Show the cached combined outlook for a scenario",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			sc, err := a.outlook(cmd, a.policy, a.reforms)
			if err != nil {
				return err
			}
			st := a.engine.CacheStats()
			return a.write(&output.Report{Title: "Combined outlook", Scenarios: []output.ScenarioReport{sc}, Cache: &st})
		}),
	}
}

func newSensitivityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sensitivity",
		Short: "Rank parameters by their effect on the key quantity",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			sc, err := a.scenario(cmd, a.policy, a.reforms)
			if err != nil {
				return err
			}
			res, err := a.engine.RunSensitivity(cmd.Context(), sc.Composition.Params, a.iterations)
			if err != nil {
				return err
			}
			return a.write(&output.Report{Title: "Sensitivity of " + sc.Name, Sensitivity: res})
		}),
	}
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare [policy[:reform,reform...]]...",
		Short: "Compare outlooks pairwise",
		Long: "compare builds an outlook for every scenario argument and compares each pair in\n" +
			"argument order. A scenario is a base policy id optionally followed by a colon and a\n" +
			"comma-separated reform list, e.g. current_law:raise_cap_250k,trim_cola.\n" +
			"With no arguments --policy is compared against --policy plus every --reform.",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			specs, err := a.compareSpecs(args)
			if err != nil {
				return err
			}
			r := &output.Report{Title: "Scenario comparison"}
			named := make([]comparison.Named, 0, len(specs))
			for _, s := range specs {
				sc, err := a.outlook(cmd, s.policy, s.reforms)
				if err != nil {
					return err
				}
				r.Scenarios = append(r.Scenarios, sc)
				named = append(named, comparison.Named{Name: sc.Name, Stats: sc.Stats})
			}
			r.Comparisons, err = a.engine.CompareAll(named...)
			if err != nil {
				return err
			}
			st := a.engine.CacheStats()
			r.Cache = &st
			return a.write(r)
		}),
	}
}

type scenarioSpec struct {
	policy  string
	reforms []string
}

func (a *app) compareSpecs(args []string) ([]scenarioSpec, error) {
	if len(args) == 0 {
		if len(a.reforms) == 0 {
			return nil, errors.New("compare needs at least two scenarios or at least one --reform")
		}
		return []scenarioSpec{{policy: a.policy}, {policy: a.policy, reforms: a.reforms}}, nil
	}
	if len(args) < 2 {
		return nil, errors.New("compare needs at least two scenarios")
	}
	specs := make([]scenarioSpec, 0, len(args))
	for _, arg := range args {
		s, err := parseScenarioSpec(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// parseScenarioSpec reads "policy" or "policy:reform,reform".
func parseScenarioSpec(s string) (scenarioSpec, error) {
	policy, rest, hasReforms := strings.Cut(strings.TrimSpace(s), ":")
	if policy == "" {
		return scenarioSpec{}, fmt.Errorf("scenario %q: missing base policy", s)
	}
	spec := scenarioSpec{policy: policy}
	if !hasReforms {
		return spec, nil
	}
	for _, r := range strings.Split(rest, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			return scenarioSpec{}, fmt.Errorf("scenario %q: empty reform id", s)
		}
		spec.reforms = append(spec.reforms, r)
	}
	return spec, nil
}

func scenarioName(policy string, reforms []string) string {
	if len(reforms) == 0 {
		return policy
	}
	return policy + "+" + strings.Join(reforms, "+")
}

// scenario composes a catalog scenario without running it.
func (a *app) scenario(cmd *cobra.Command, policy string, reforms []string) (output.ScenarioReport, error) {
	comp, err := a.engine.DescribeScenario(policy, reforms, a.assumptions...)
	if err != nil {
		return output.ScenarioReport{}, err
	}
	a.logger.DebugContext(cmd.Context(), "scenario composed",
		"scenario", scenarioName(policy, reforms),
		"fingerprint", comp.Params.Fingerprint(),
		"changes", len(comp.Changes),
	)
	return output.ScenarioReport{
		Name:            scenarioName(policy, reforms),
		Composition:     comp,
		FirstFiscalYear: a.engine.Config().FirstFiscalYear,
	}, nil
}

// outlook composes a scenario and fetches its cached outlook.
func (a *app) outlook(cmd *cobra.Command, policy string, reforms []string) (output.ScenarioReport, error) {
	sc, err := a.scenario(cmd, policy, reforms)
	if err != nil {
		return sc, err
	}
	res, err := a.engine.CombinedOutlook(cmd.Context(), sc.Composition.Params, a.iterations, a.horizon, a.seedFlag(cmd))
	if err != nil {
		return sc, err
	}
	sc.Stats = res.Stats
	sc.Cached = res.Cached
	sc.Trajectory = a.engine.Trajectory(res.Stats)
	return sc, nil
}
