package csp

import "errors"

// Status is the wire status code kind (§6). Negative values are errors;
// zero is success.
type Status int32

const (
	StatusNoError                                        Status = 0
	StatusErrorNoMemory                                   Status = -1
	StatusErrorOverflow                                   Status = -2
	StatusErrorInvalidArgument                            Status = -3
	StatusErrorInvalidType                                Status = -4
	StatusErrorInvalidHash                                Status = -5
	StatusErrorNotSupportedProtocolVersion                Status = -6
	StatusErrorNotSupportedInterfaceVersion               Status = -7
	StatusErrorMismatchOfProtocolVersions                 Status = -8
	StatusErrorMismatchOfInterfaceVersions                Status = -9
	StatusErrorMismatchOfTypeId                           Status = -10
	StatusErrorNoSuchHandler                              Status = -11
	StatusErrorMoreEntries                                Status = -12
	StatusErrorNotAvailable                               Status = -13
	StatusErrorNotInited                                  Status = -14
	StatusErrorAlreadyInited                              Status = -15
	StatusErrorNotCompatibleCommonFlagsSettings            Status = -16
	StatusErrorNotCompatibleDataFlagsSettings              Status = -17
	StatusErrorNoSupportedInterfaces                      Status = -18
	StatusErrorNotSupportedSerializationSettingsForStruct Status = -19
	StatusErrorTypeSizeIsTooBig                           Status = -20
	StatusErrorDataCorrupted                              Status = -21
	StatusErrorInternal                                   Status = -22
)

// NoFurtherProcessingRequired is an in-band success sub-signal that is
// never written to the wire (§7). No code path in this module returns it.
var NoFurtherProcessingRequired = errors.New("csp: no further processing required")

func (s Status) Error() string {
	if msg, ok := statusText[s]; ok {
		return msg
	}
	return "csp: unknown status"
}

// OK reports whether the status denotes success.
func (s Status) OK() bool { return s == StatusNoError }

var statusText = map[Status]string{
	StatusNoError:                            "no error",
	StatusErrorNoMemory:                      "csp: allocation failed",
	StatusErrorOverflow:                      "csp: buffer overflow",
	StatusErrorInvalidArgument:               "csp: invalid argument",
	StatusErrorInvalidType:                   "csp: invalid type for operation",
	StatusErrorInvalidHash:                   "csp: invalid hash",
	StatusErrorNotSupportedProtocolVersion:   "csp: unsupported protocol version",
	StatusErrorNotSupportedInterfaceVersion:  "csp: unsupported interface version",
	StatusErrorMismatchOfProtocolVersions:    "csp: mismatched protocol versions",
	StatusErrorMismatchOfInterfaceVersions:   "csp: mismatched interface versions",
	StatusErrorMismatchOfTypeId:              "csp: mismatched type id",
	StatusErrorNoSuchHandler:                 "csp: no such handler",
	StatusErrorMoreEntries:                   "csp: more than one matching entry",
	StatusErrorNotAvailable:                  "csp: handler not available",
	StatusErrorNotInited:                     "csp: not initialized",
	StatusErrorAlreadyInited:                 "csp: already initialized",
	StatusErrorNotCompatibleCommonFlagsSettings:           "csp: incompatible common flags",
	StatusErrorNotCompatibleDataFlagsSettings:             "csp: incompatible data flags",
	StatusErrorNoSupportedInterfaces:                      "csp: no supported interfaces",
	StatusErrorNotSupportedSerializationSettingsForStruct: "csp: unsupported serialization settings for struct",
	StatusErrorTypeSizeIsTooBig:                           "csp: type size too big",
	StatusErrorDataCorrupted:                              "csp: data corrupted",
	StatusErrorInternal:                                   "csp: internal error",
}

// Package-level sentinel errors. These are what Go code actually returns
// and checks with errors.Is; each is the Status value of the same name,
// so it needs no conversion to reach the wire (see StatusFromError for
// the reverse mapping of an arbitrary error).
var (
	ErrNoMemory                                   = StatusErrorNoMemory
	ErrOverflow                                   = StatusErrorOverflow
	ErrInvalidArgument                            = StatusErrorInvalidArgument
	ErrInvalidType                                = StatusErrorInvalidType
	ErrInvalidHash                                = StatusErrorInvalidHash
	ErrNotSupportedProtocolVersion                = StatusErrorNotSupportedProtocolVersion
	ErrNotSupportedInterfaceVersion                = StatusErrorNotSupportedInterfaceVersion
	ErrMismatchOfProtocolVersions                 = StatusErrorMismatchOfProtocolVersions
	ErrMismatchOfInterfaceVersions                 = StatusErrorMismatchOfInterfaceVersions
	ErrMismatchOfTypeId                           = StatusErrorMismatchOfTypeId
	ErrNoSuchHandler                               = StatusErrorNoSuchHandler
	ErrMoreEntries                                 = StatusErrorMoreEntries
	ErrNotAvailable                                = StatusErrorNotAvailable
	ErrNotInited                                   = StatusErrorNotInited
	ErrAlreadyInited                               = StatusErrorAlreadyInited
	ErrNotCompatibleCommonFlagsSettings             = StatusErrorNotCompatibleCommonFlagsSettings
	ErrNotCompatibleDataFlagsSettings               = StatusErrorNotCompatibleDataFlagsSettings
	ErrNoSupportedInterfaces                        = StatusErrorNoSupportedInterfaces
	ErrNotSupportedSerializationSettingsForStruct   = StatusErrorNotSupportedSerializationSettingsForStruct
	ErrTypeSizeIsTooBig                             = StatusErrorTypeSizeIsTooBig
	ErrDataCorrupted                                = StatusErrorDataCorrupted
	ErrInternal                                     = StatusErrorInternal
)

// StatusFromError maps an error back to its wire Status, defaulting to
// StatusErrorInternal for an unrecognized error so a handler can never
// silently drop a failure at the server boundary.
func StatusFromError(err error) Status {
	if err == nil {
		return StatusNoError
	}
	if s, ok := err.(Status); ok {
		return s
	}
	return StatusErrorInternal
}
