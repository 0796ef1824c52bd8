package csp

// MessageType identifies the kind of frame following a common header.
type MessageType uint32

const (
	MessageStatus      MessageType = 1
	MessageData        MessageType = 2
	MessageGetSettings MessageType = 3
)

func (m MessageType) String() string {
	switch m {
	case MessageStatus:
		return "Status"
	case MessageData:
		return "Data"
	case MessageGetSettings:
		return "GetSettings"
	default:
		return "Unknown"
	}
}

// InterfaceDescriptor names a versioned collection of serializable types
// and the data-flag policy that governs them (§3).
type InterfaceDescriptor struct {
	ID                 Id
	Version            InterfaceVersion
	MandatoryDataFlags DataFlags
	ForbiddenDataFlags DataFlags
}

// EffectiveFlags computes the union of the interface's mandatory flags
// with caller-supplied additional flags, and reports a forbidden-flag
// violation if any (§3).
func (d InterfaceDescriptor) EffectiveFlags(additional DataFlags) (DataFlags, error) {
	eff := d.MandatoryDataFlags.Union(additional)
	if eff.ViolatesForbidden(d.ForbiddenDataFlags) {
		return eff, ErrNotCompatibleDataFlagsSettings
	}
	return eff, nil
}

// PartySettings is what a party (client or server) publishes at handshake
// time: supported protocol versions, common-flag policy, and the
// interfaces it knows about (§3, §6 GetSettings reply body).
type PartySettings struct {
	ProtocolVersions     []ProtocolVersion
	MandatoryCommonFlags CommonFlags
	ForbiddenCommonFlags CommonFlags
	Interfaces           []InterfaceDescriptor
}

// Intersect computes the settings two parties agree on: the protocol
// version list intersected (order from a, most-recent-first preserved),
// mandatory/forbidden common flags OR'd together (the union is always at
// least as strict as either side), and interfaces present (by Id) in
// both, narrowed to the lower of their two versions, with their mandatory
// and forbidden data flags each OR'd together. The result is empty (zero-length Interfaces and
// ProtocolVersions) if the parties share nothing in common.
func (a PartySettings) Intersect(b PartySettings) PartySettings {
	out := PartySettings{
		MandatoryCommonFlags: a.MandatoryCommonFlags | b.MandatoryCommonFlags,
		ForbiddenCommonFlags: a.ForbiddenCommonFlags | b.ForbiddenCommonFlags,
	}
	bVersions := make(map[ProtocolVersion]struct{}, len(b.ProtocolVersions))
	for _, v := range b.ProtocolVersions {
		bVersions[v] = struct{}{}
	}
	for _, v := range a.ProtocolVersions {
		if _, ok := bVersions[v]; ok {
			out.ProtocolVersions = append(out.ProtocolVersions, v)
		}
	}

	bIfaces := make(map[Id]InterfaceDescriptor, len(b.Interfaces))
	for _, iface := range b.Interfaces {
		bIfaces[iface.ID] = iface
	}
	for _, iface := range a.Interfaces {
		other, ok := bIfaces[iface.ID]
		if !ok {
			continue
		}
		version := iface.Version
		if other.Version < version {
			version = other.Version
		}
		out.Interfaces = append(out.Interfaces, InterfaceDescriptor{
			ID:                 iface.ID,
			Version:            version,
			MandatoryDataFlags: iface.MandatoryDataFlags | other.MandatoryDataFlags,
			ForbiddenDataFlags: iface.ForbiddenDataFlags | other.ForbiddenDataFlags,
		})
	}
	return out
}

// Valid reports whether the settings are usable: at least one protocol
// version and at least one interface in common.
func (a PartySettings) Valid() bool {
	return len(a.ProtocolVersions) > 0 && len(a.Interfaces) > 0
}

// Interface looks up a published interface descriptor by Id.
func (a PartySettings) Interface(id Id) (InterfaceDescriptor, bool) {
	for _, iface := range a.Interfaces {
		if iface.ID.Equal(id) {
			return iface, true
		}
	}
	return InterfaceDescriptor{}, false
}
