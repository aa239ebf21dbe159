package edicttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/edict"
	"github.com/roach88/edict/cueload"
	"github.com/roach88/edict/internal/canon"
)

// Scenario describes a flow of operations to perform and the assertions to
// evaluate over the resulting trace.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// Declarations lists CUE files to load, relative to Env.BasePath.
	Declarations []string `yaml:"declarations,omitempty"`

	// Flow is the ordered list of operations to perform.
	Flow []FlowStep `yaml:"flow"`

	// Assertions are evaluated over the trace after the flow completes.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FlowStep is one operation in a scenario flow.
type FlowStep struct {
	// Call is the qualified operation name, e.g. "Utils.add".
	Call string `yaml:"call"`

	// Args supplies the operation's arguments. Required; use an empty map
	// for operations that take none.
	Args map[string]any `yaml:"args"`

	// Expect optionally pins the step's outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause pins a flow step's outcome to a result value or an error
// code. Setting both is a validation error.
type ExpectClause struct {
	// Result is compared against the performer's return value using
	// canonical JSON equality.
	Result any `yaml:"result,omitempty"`

	// Error names the error code the step must fail with, e.g.
	// "UNHANDLED_EFFECT" or "MISSING_FIELD".
	Error string `yaml:"error,omitempty"`
}

// Assertion is a declarative check over the trace.
type Assertion struct {
	// Type is trace_contains, trace_order, or trace_count.
	Type string `yaml:"type"`

	// Call qualifies trace_contains and trace_count assertions.
	Call string `yaml:"call,omitempty"`

	// Args restricts trace_contains to calls whose arguments include
	// these values. Subset match; extra trace arguments are fine.
	Args map[string]any `yaml:"args,omitempty"`

	// Calls lists the expected relative order for trace_order.
	Calls []string `yaml:"calls,omitempty"`

	// Count is the exact number of matching calls for trace_count.
	Count int `yaml:"count"`
}

// LoadScenario reads and validates a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently skipping checks.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc Scenario

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, err
	}

	return &sc, nil
}

func validateScenario(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if sc.Description == "" {
		return fmt.Errorf("scenario description is required")
	}

	if len(sc.Flow) == 0 {
		return fmt.Errorf("scenario must have at least one flow step")
	}

	for i, step := range sc.Flow {
		if step.Call == "" {
			return fmt.Errorf("flow[%d]: call is required", i)
		}

		iface, op, ok := strings.Cut(step.Call, ".")
		if !ok || iface == "" || op == "" {
			return fmt.Errorf("flow[%d]: call %q must be qualified as interface.op", i, step.Call)
		}

		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use {} for none)", i)
		}

		if step.Expect != nil && step.Expect.Result != nil && step.Expect.Error != "" {
			return fmt.Errorf("flow[%d]: expect cannot set both result and error", i)
		}
	}

	for i, a := range sc.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion[%d]: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "trace_contains":
		if a.Call == "" {
			return fmt.Errorf("trace_contains requires a call")
		}
	case "trace_order":
		if len(a.Calls) < 2 {
			return fmt.Errorf("trace_order requires at least two calls")
		}
	case "trace_count":
		if a.Call == "" {
			return fmt.Errorf("trace_count requires a call")
		}
		if a.Count < 0 {
			return fmt.Errorf("trace_count count must be non-negative")
		}
	case "":
		return fmt.Errorf("assertion type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	return nil
}

// Env supplies the collaborators a scenario runs against.
type Env struct {
	// Interfaces are pre-compiled interfaces available to the flow, keyed
	// by name. Merged with any the scenario's declarations compile.
	Interfaces map[string]*edict.Interface

	// Providers maps interface names to the values that perform them.
	// Interfaces without a provider stay unrouted; performing one of
	// their operations fails with UNHANDLED_EFFECT.
	Providers map[string]any

	// BasePath anchors relative declaration paths. Defaults to the
	// working directory.
	BasePath string

	// Logger receives run progress. Defaults to a discarding logger.
	Logger *slog.Logger

	// Clock orders trace events. Defaults to a fresh clock per run.
	Clock *Clock
}

// Run executes every flow step in order, collecting a trace, then
// evaluates the scenario's assertions over it. Step failures and assertion
// failures land in Result.Errors; an error return means the scenario
// itself could not be set up.
func Run(ctx context.Context, sc *Scenario, env Env) (*Result, error) {
	if sc == nil {
		return nil, fmt.Errorf("nil scenario")
	}

	if err := validateScenario(sc); err != nil {
		return nil, err
	}

	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	clock := env.Clock
	if clock == nil {
		clock = NewClock()
	}

	interfaces, err := gatherInterfaces(sc, env)
	if err != nil {
		return nil, err
	}

	table, err := bindProviders(interfaces, env.Providers)
	if err != nil {
		return nil, err
	}

	logger.Info("running scenario", "name", sc.Name, "steps", len(sc.Flow))

	result := NewResult()

	for i, step := range sc.Flow {
		runStep(ctx, i, step, interfaces, table, clock, result, logger)
	}

	for i, a := range sc.Assertions {
		if err := evaluateAssertion(a, result.CallEvents()); err != nil {
			result.AddError(fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}

	logger.Info("scenario finished", "name", sc.Name, "pass", result.Pass)

	return result, nil
}

func gatherInterfaces(sc *Scenario, env Env) (map[string]*edict.Interface, error) {
	interfaces := make(map[string]*edict.Interface)

	var decls []edict.Decl

	for _, path := range sc.Declarations {
		if env.BasePath != "" && !filepath.IsAbs(path) {
			path = filepath.Join(env.BasePath, path)
		}

		loaded, err := cueload.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load declarations: %w", err)
		}

		decls = append(decls, loaded...)
	}

	if len(decls) > 0 {
		compiled, err := cueload.CompileAll(decls)
		if err != nil {
			return nil, err
		}

		for name, iface := range compiled {
			interfaces[name] = iface
		}
	}

	for name, iface := range env.Interfaces {
		if _, dup := interfaces[name]; dup {
			return nil, fmt.Errorf("interface %q supplied both by declarations and Env.Interfaces", name)
		}

		interfaces[name] = iface
	}

	return interfaces, nil
}

func bindProviders(interfaces map[string]*edict.Interface, providers map[string]any) (*edict.DispatchTable, error) {
	names := make([]string, 0, len(interfaces))
	for name := range interfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	var bindings []edict.Binding

	for _, name := range names {
		provider, ok := providers[name]
		if !ok {
			continue
		}

		bindings = append(bindings, edict.Bind(interfaces[name], provider))
	}

	return edict.NewDispatcher(bindings...)
}

func runStep(ctx context.Context, i int, step FlowStep, interfaces map[string]*edict.Interface, table *edict.DispatchTable, clock *Clock, result *Result, logger *slog.Logger) {
	ifaceName, opName, _ := strings.Cut(step.Call, ".")

	iface, ok := interfaces[ifaceName]
	if !ok {
		result.AddError(fmt.Sprintf("flow[%d]: unknown interface %q", i, ifaceName))
		return
	}

	factory, ok := iface.Factory(opName)
	if !ok {
		result.AddError(fmt.Sprintf("flow[%d]: interface %q has no public operation %q", i, ifaceName, opName))
		return
	}

	logger.Info("performing", "step", i, "call", step.Call)

	eff, err := factory.New(edict.Args(step.Args))
	if err != nil {
		if wantErr(step, err) {
			return
		}

		result.AddError(fmt.Sprintf("flow[%d]: %s: %v", i, step.Call, err))
		return
	}

	result.AddCall(step.Call, eff.Intent().Fields(), clock.Next())

	value, err := edict.Perform(ctx, table, eff)
	if err != nil {
		result.AddFailure(step.Call, err, clock.Next())

		if !wantErr(step, err) {
			result.AddError(fmt.Sprintf("flow[%d]: %s: %v", i, step.Call, err))
		}
		return
	}

	result.AddResult(step.Call, value, clock.Next())

	if step.Expect == nil {
		return
	}

	if step.Expect.Error != "" {
		result.AddError(fmt.Sprintf("flow[%d]: %s: expected error %s, got a result", i, step.Call, step.Expect.Error))
		return
	}

	if step.Expect.Result != nil && !canonicalEqual(value, step.Expect.Result) {
		result.AddError(fmt.Sprintf("flow[%d]: %s: expected result %s, got %s",
			i, step.Call, renderValue(step.Expect.Result), renderValue(value)))
	}
}

// wantErr reports whether the step declared this error as its expected
// outcome.
func wantErr(step FlowStep, err error) bool {
	return step.Expect != nil && step.Expect.Error != "" && errorCode(err) == step.Expect.Error
}

// errorCode maps typed errors to the code names scenarios match on.
func errorCode(err error) string {
	switch {
	case edict.IsUnhandledEffect(err):
		return "UNHANDLED_EFFECT"
	case edict.IsDuplicateRegistration(err):
		return "DUPLICATE_REGISTRATION"
	}

	if fe, ok := edict.AsFieldError(err); ok {
		return string(fe.Code)
	}

	if be, ok := edict.AsBindError(err); ok {
		return string(be.Code)
	}

	if _, ok := edict.AsSpecError(err); ok {
		return "SPEC_ERROR"
	}

	return ""
}

// canonicalEqual compares two values by their canonical JSON rendering, so
// YAML integers compare equal to Go ints and map key order never matters.
func canonicalEqual(a, b any) bool {
	ab, err := canon.Marshal(a)
	if err != nil {
		return false
	}

	bb, err := canon.Marshal(b)
	if err != nil {
		return false
	}

	return bytes.Equal(ab, bb)
}

func renderValue(v any) string {
	data, err := canon.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(data)
}
