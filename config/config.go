// Package config loads the csp.PartySettings a client or server publishes,
// plus its ambient logging options, from an ini-style file.
//
// Grounded on gravwell's ingest/config.IngestConfig: the same
// Field_Name struct-tag convention gcfg maps to dashed ini keys
// (Ingest_Secret -> "Ingest-Secret"), the same loadDefaults/Verify
// two-step (parse, then apply environment overrides, then validate),
// and the same GetLogger helper — generalized from "indexer targets and
// a cache path" to "the protocol versions, flag policy, and interfaces
// this party negotiates".
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/gravwell/gcfg"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/log"
)

const (
	envSecret   string = `CSP_SHARED_SECRET`
	envLogLevel string = `CSP_LOG_LEVEL`

	defaultLogLevel = `ERROR`
)

var (
	ErrNoProtocolVersions = errors.New("config: [Global] has no Protocol-Version entries")
	ErrNoInterfaces       = errors.New("config: no [Interface \"name\"] sections")
	ErrMissingSecret      = errors.New("config: Shared-Secret is empty")
	ErrInvalidTypeID      = errors.New("config: Interface section has an invalid or missing Type-ID")
)

// Global is the [Global] section: protocol and common-flag policy plus
// the ambient logging options every deployment needs regardless of
// which interfaces it publishes.
type Global struct {
	Protocol_Version      []uint8
	Mandatory_Common_Flag []string
	Forbidden_Common_Flag []string
	Bitness_32            bool
	Big_Endian_Format     bool
	Shared_Secret         string `json:"-"`
	Log_Level             string
	Log_File              string
	Node_UUID             string
}

// InterfaceSection is one [Interface "name"] block: a type Id, the
// interface version it implements, and its data-flag policy.
type InterfaceSection struct {
	Type_ID             string
	Version             uint32
	Mandatory_Data_Flag []string
	Forbidden_Data_Flag []string
}

// PartyConfig is the full parsed config file.
type PartyConfig struct {
	Global    Global
	Interface map[string]*InterfaceSection
}

// LoadFile reads and parses path, applies environment overrides, and
// validates the result (spec §6 settings shape).
func LoadFile(path string) (*PartyConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBytes(b)
}

// LoadBytes parses b directly, skipping the filesystem (spec's
// config.LoadConfigBytes equivalent, useful in tests).
func LoadBytes(b []byte) (*PartyConfig, error) {
	var pc PartyConfig
	if err := gcfg.ReadStringInto(&pc, string(b)); err != nil {
		return nil, err
	}
	if err := pc.loadDefaults(); err != nil {
		return nil, err
	}
	if err := pc.Verify(); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (pc *PartyConfig) loadDefaults() error {
	if v := os.Getenv(envSecret); v != `` {
		pc.Global.Shared_Secret = v
	}
	if v := os.Getenv(envLogLevel); v != `` {
		pc.Global.Log_Level = v
	}
	if pc.Global.Log_Level == `` {
		pc.Global.Log_Level = defaultLogLevel
	}
	return nil
}

// Verify checks that the parsed config is sufficient to build a
// csp.PartySettings: at least one protocol version, at least one
// interface, a well-formed Type-ID per interface, and a non-empty
// shared secret.
func (pc *PartyConfig) Verify() error {
	if len(pc.Global.Protocol_Version) == 0 {
		return ErrNoProtocolVersions
	}
	if len(pc.Interface) == 0 {
		return ErrNoInterfaces
	}
	if pc.Global.Shared_Secret == `` {
		return ErrMissingSecret
	}
	for name, sec := range pc.Interface {
		if _, err := uuid.Parse(sec.Type_ID); err != nil {
			return fmt.Errorf("%w (interface %q): %v", ErrInvalidTypeID, name, err)
		}
	}
	if _, err := log.ParseLevel(pc.Global.Log_Level); err != nil {
		return err
	}
	return nil
}

// Secret returns the configured Shared-Secret (after any
// CSP_SHARED_SECRET override). Nothing else in this module reads it.
func (pc *PartyConfig) Secret() string { return pc.Global.Shared_Secret }

// Logger builds a log.Logger from the Log-Level/Log-File parameters.
// An empty Log-File yields log.DiscardLogger.
func (pc *PartyConfig) Logger() (log.Logger, error) {
	lvl, err := log.ParseLevel(pc.Global.Log_Level)
	if err != nil {
		return nil, err
	}
	if pc.Global.Log_File == `` {
		return log.DiscardLogger, nil
	}
	f, err := os.OpenFile(pc.Global.Log_File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return log.NewRFC5424Logger(f, "csp", lvl), nil
}

// PartySettings builds the csp.PartySettings this config describes
// (spec §6's CspPartySettings shape).
func (pc *PartyConfig) PartySettings() (csp.PartySettings, error) {
	var out csp.PartySettings
	for _, v := range pc.Global.Protocol_Version {
		out.ProtocolVersions = append(out.ProtocolVersions, csp.ProtocolVersion(v))
	}
	if pc.Global.Bitness_32 {
		out.MandatoryCommonFlags |= csp.FlagBitness32
	}
	if pc.Global.Big_Endian_Format {
		out.MandatoryCommonFlags |= csp.FlagBigEndianFormat
	}
	mand, err := parseCommonFlags(pc.Global.Mandatory_Common_Flag)
	if err != nil {
		return csp.PartySettings{}, err
	}
	out.MandatoryCommonFlags |= mand
	forbid, err := parseCommonFlags(pc.Global.Forbidden_Common_Flag)
	if err != nil {
		return csp.PartySettings{}, err
	}
	out.ForbiddenCommonFlags = forbid

	for name, sec := range pc.Interface {
		u, err := uuid.Parse(sec.Type_ID)
		if err != nil {
			return csp.PartySettings{}, fmt.Errorf("%w (interface %q)", ErrInvalidTypeID, name)
		}
		mandD, err := parseDataFlags(sec.Mandatory_Data_Flag)
		if err != nil {
			return csp.PartySettings{}, err
		}
		forbidD, err := parseDataFlags(sec.Forbidden_Data_Flag)
		if err != nil {
			return csp.PartySettings{}, err
		}
		out.Interfaces = append(out.Interfaces, csp.InterfaceDescriptor{
			ID:                 csp.IdFromUUID(u),
			Version:            csp.InterfaceVersion(sec.Version),
			MandatoryDataFlags: mandD,
			ForbiddenDataFlags: forbidD,
		})
	}
	return out, nil
}

func parseCommonFlags(names []string) (csp.CommonFlags, error) {
	var out csp.CommonFlags
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case `big-endian-format`:
			out |= csp.FlagBigEndianFormat
		case `bitness-32`:
			out |= csp.FlagBitness32
		case `endianness-difference`:
			out |= csp.FlagEndiannessDifference
		default:
			return 0, fmt.Errorf("config: unknown common flag %q", n)
		}
	}
	return out, nil
}

func parseDataFlags(names []string) (csp.DataFlags, error) {
	var out csp.DataFlags
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case `alignment-may-be-not-equal`:
			out |= csp.FlagAlignmentMayBeNotEqual
		case `size-of-integers-may-be-not-equal`:
			out |= csp.FlagSizeOfIntegersMayBeNotEqual
		case `allow-unmanaged-pointers`:
			out |= csp.FlagAllowUnmanagedPointers
		case `check-recursive-pointers`:
			out |= csp.FlagCheckRecursivePointers
		case `simply-assignable-tags-optimizations-are-turned-off`:
			out |= csp.FlagSimplyAssignableTagsOptimizationsAreTurnedOff
		default:
			return 0, fmt.Errorf("config: unknown data flag %q", n)
		}
	}
	return out, nil
}
