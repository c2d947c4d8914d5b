// Package config reads the YAML description of a coupling between two
// participants and builds the coupling scheme of one of them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ArminHamedi/precice/com"
	"github.com/ArminHamedi/precice/cplscheme"
	"github.com/ArminHamedi/precice/cplscheme/impl"
	"github.com/ArminHamedi/precice/mesh"
)

// Scheme names.
const (
	SchemeSerialExplicit = "serial-explicit"
	SchemeSerialImplicit = "serial-implicit"
)

// Convergence measure types.
const (
	MeasureAbsolute      = "absolute"
	MeasureRelative      = "relative"
	MeasureMinIterations = "min-iterations"
)

// Config describes a coupling.
type Config struct {
	Participants       Participants  `yaml:"participants"`
	Scheme             string        `yaml:"scheme"`
	MaxTime            *float64      `yaml:"max-time"`
	MaxTimesteps       *int          `yaml:"max-timesteps"`
	TimestepLength     *float64      `yaml:"timestep-length"`
	DtMethod           string        `yaml:"dt-method"`
	ValidDigits        int           `yaml:"valid-digits"`
	MaxIterations      *int          `yaml:"max-iterations"`
	ExtrapolationOrder int           `yaml:"extrapolation-order"`
	CheckpointInterval int           `yaml:"checkpoint-interval"`
	Data               []Data        `yaml:"data"`
	Convergence        []Convergence `yaml:"convergence"`
}

// Participants names the two coupled participants.
type Participants struct {
	First  string `yaml:"first"`
	Second string `yaml:"second"`
}

// Data declares an exchanged field. The position in the list is the data id.
type Data struct {
	Name       string `yaml:"name"`
	Mesh       string `yaml:"mesh"`
	Size       int    `yaml:"size"`
	From       string `yaml:"from"`
	Initialize bool   `yaml:"initialize"`
}

// Convergence attaches a convergence measure to a data field.
type Convergence struct {
	Data     string  `yaml:"data"`
	Type     string  `yaml:"type"`
	Limit    float64 `yaml:"limit"`
	Suffices bool    `yaml:"suffices"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return Parse(bytes.NewReader(raw))
}

// Parse reads and validates a configuration. Unknown keys are errors.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config: empty configuration")
		}

		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scheme == "" {
		c.Scheme = SchemeSerialExplicit
	}

	if c.DtMethod == "" {
		c.DtMethod = cplscheme.DtMethodFixed.String()
	}

	if c.ValidDigits == 0 {
		c.ValidDigits = 10
	}
}

// Validate checks the parts of the configuration that do not depend on the
// local participant. Numeric bounds are checked when the scheme is built.
func (c *Config) Validate() error {
	p := c.Participants
	if p.First == "" || p.Second == "" {
		return errors.New("config: both participants must be named")
	}

	if p.First == p.Second {
		return fmt.Errorf("config: participants must differ, both are %q",
			p.First)
	}

	if c.Scheme != SchemeSerialExplicit && c.Scheme != SchemeSerialImplicit {
		return fmt.Errorf("config: unknown scheme %q", c.Scheme)
	}

	if _, err := c.dtMethod(); err != nil {
		return err
	}

	if len(c.Data) == 0 {
		return errors.New("config: no data declared")
	}

	names := make(map[string]bool)

	for _, d := range c.Data {
		if err := c.validateData(d, names); err != nil {
			return err
		}

		names[d.Name] = true
	}

	for _, m := range c.Convergence {
		if !names[m.Data] {
			return fmt.Errorf("config: convergence measure on unknown "+
				"data %q", m.Data)
		}

		if err := validateMeasure(m); err != nil {
			return err
		}
	}

	if c.Scheme == SchemeSerialImplicit && len(c.Convergence) == 0 {
		return errors.New("config: implicit coupling needs a convergence " +
			"measure")
	}

	if c.Scheme == SchemeSerialExplicit &&
		(len(c.Convergence) > 0 || c.ExtrapolationOrder != 0) {
		return errors.New("config: explicit coupling supports neither " +
			"convergence measures nor extrapolation")
	}

	return nil
}

func (c *Config) validateData(d Data, names map[string]bool) error {
	if d.Name == "" {
		return errors.New("config: data without name")
	}

	if names[d.Name] {
		return fmt.Errorf("config: data %q declared twice", d.Name)
	}

	if d.Size < 0 {
		return fmt.Errorf("config: data %q has negative size %d",
			d.Name, d.Size)
	}

	if d.From != c.Participants.First && d.From != c.Participants.Second {
		return fmt.Errorf("config: data %q is sent by unknown "+
			"participant %q", d.Name, d.From)
	}

	if d.Initialize && d.From != c.Participants.Second {
		return fmt.Errorf("config: data %q can only be initialized by "+
			"the second participant %q", d.Name, c.Participants.Second)
	}

	return nil
}

func validateMeasure(m Convergence) error {
	switch m.Type {
	case MeasureAbsolute:
		if m.Limit <= 0 {
			return fmt.Errorf("config: absolute limit of %q must be "+
				"positive, got %g", m.Data, m.Limit)
		}
	case MeasureRelative:
		if m.Limit <= 0 || m.Limit > 1 {
			return fmt.Errorf("config: relative limit of %q must be in "+
				"(0, 1], got %g", m.Data, m.Limit)
		}
	case MeasureMinIterations:
		if m.Limit < 1 || m.Limit != float64(int(m.Limit)) {
			return fmt.Errorf("config: min-iterations limit of %q must be "+
				"a positive integer, got %g", m.Data, m.Limit)
		}
	default:
		return fmt.Errorf("config: unknown convergence measure %q", m.Type)
	}

	return nil
}

func (c *Config) dtMethod() (cplscheme.DtMethod, error) {
	switch c.DtMethod {
	case cplscheme.DtMethodFixed.String():
		return cplscheme.DtMethodFixed, nil
	case cplscheme.DtMethodFirstParticipant.String():
		return cplscheme.DtMethodFirstParticipant, nil
	default:
		return 0, fmt.Errorf("config: unknown dt-method %q", c.DtMethod)
	}
}

// Meshes creates the data items of the coupling. The id of an item is its
// position in the configuration.
func (c *Config) Meshes() (*mesh.Set, error) {
	set := mesh.NewSet()

	for i, d := range c.Data {
		if err := set.Add(mesh.NewData(i, d.Name, d.Mesh, d.Size)); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	return set, nil
}

// HasParticipant tells if name is one of the coupled participants.
func (c *Config) HasParticipant(name string) bool {
	return name == c.Participants.First || name == c.Participants.Second
}

// Peer returns the name of the other participant.
func (c *Config) Peer(local string) string {
	if local == c.Participants.First {
		return c.Participants.Second
	}

	return c.Participants.First
}

// SchemeName returns the name of the coupling, derived from the
// participants.
func (c *Config) SchemeName() string {
	return c.Participants.First + c.Participants.Second
}

type dataScheme interface {
	cplscheme.CouplingScheme
	AddDataToSend(d cplscheme.Data, initialize bool) error
	AddDataToReceive(d cplscheme.Data, initialize bool) error
}

// BuildScheme creates the scheme of the local participant and registers the
// data in data with it.
func (c *Config) BuildScheme(
	local string,
	comm com.Communication,
	data *mesh.Set,
	logger *logrus.Logger,
) (cplscheme.CouplingScheme, error) {
	method, err := c.dtMethod()
	if err != nil {
		return nil, err
	}

	b := cplscheme.MakeBuilder().
		WithParticipants(c.Participants.First, c.Participants.Second).
		WithLocalParticipant(local).
		WithCommunication(comm).
		WithDtMethod(method).
		WithValidDigits(c.ValidDigits).
		WithExtrapolationOrder(c.ExtrapolationOrder).
		WithCheckpointTimestepInterval(c.CheckpointInterval).
		WithLogger(logger)

	if c.MaxTime != nil {
		b = b.WithMaxTime(*c.MaxTime)
	}

	if c.MaxTimesteps != nil {
		b = b.WithMaxTimesteps(*c.MaxTimesteps)
	}

	if c.TimestepLength != nil {
		b = b.WithTimestepLength(*c.TimestepLength)
	}

	if c.MaxIterations != nil {
		b = b.WithMaxIterations(*c.MaxIterations)
	}

	for _, m := range c.Convergence {
		d := data.ByName(m.Data)
		if d == nil {
			return nil, fmt.Errorf("config: data %q is not in the mesh set",
				m.Data)
		}

		b = b.WithConvergenceMeasure(d.ID(), m.Suffices, newMeasure(m))
	}

	var scheme dataScheme

	switch c.Scheme {
	case SchemeSerialImplicit:
		scheme, err = b.BuildImplicit(c.SchemeName())
	default:
		scheme, err = b.BuildExplicit(c.SchemeName())
	}

	if err != nil {
		return nil, err
	}

	for _, decl := range c.Data {
		d := data.ByName(decl.Name)
		if d == nil {
			return nil, fmt.Errorf("config: data %q is not in the mesh set",
				decl.Name)
		}

		if decl.From == local {
			err = scheme.AddDataToSend(d, decl.Initialize)
		} else {
			err = scheme.AddDataToReceive(d, decl.Initialize)
		}

		if err != nil {
			return nil, err
		}
	}

	return scheme, nil
}

func newMeasure(m Convergence) cplscheme.ConvergenceMeasure {
	switch m.Type {
	case MeasureAbsolute:
		return impl.NewAbsoluteMeasure(m.Limit)
	case MeasureRelative:
		return impl.NewRelativeMeasure(m.Limit)
	default:
		return impl.NewMinIterationMeasure(int(m.Limit))
	}
}
