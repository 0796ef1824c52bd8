package config

import "testing"

const sample = `
[Global]
Protocol-Version=1
Protocol-Version=2
Bitness-32=true
Mandatory-Common-Flag=Big-Endian-Format
Shared-Secret=s3cr3t
Log-Level=INFO

[Interface "widgets"]
Type-ID=3fa85f64-5717-4562-b3fc-2c963f66afa6
Version=3
Mandatory-Data-Flag=Check-Recursive-Pointers
Forbidden-Data-Flag=Allow-Unmanaged-Pointers
`

func TestLoadBytesRoundTrip(t *testing.T) {
	pc, err := LoadBytes([]byte(sample))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if len(pc.Global.Protocol_Version) != 2 {
		t.Fatalf("expected 2 protocol versions, got %d", len(pc.Global.Protocol_Version))
	}
	if pc.Secret() != "s3cr3t" {
		t.Fatalf("unexpected secret %q", pc.Secret())
	}
	sec, ok := pc.Interface["widgets"]
	if !ok {
		t.Fatal("missing widgets interface section")
	}
	if sec.Version != 3 {
		t.Fatalf("unexpected version %d", sec.Version)
	}

	settings, err := pc.PartySettings()
	if err != nil {
		t.Fatalf("PartySettings: %v", err)
	}
	if !settings.Valid() {
		t.Fatal("expected valid settings")
	}
	if !settings.MandatoryCommonFlags.Bitness32() {
		t.Fatal("expected Bitness32 mandatory flag")
	}
	if !settings.MandatoryCommonFlags.BigEndian() {
		t.Fatal("expected BigEndianFormat mandatory flag")
	}
	iface := settings.Interfaces[0]
	if !iface.MandatoryDataFlags.Has(1 << 3) { // FlagCheckRecursivePointers
		t.Fatal("expected CheckRecursivePointers mandatory data flag")
	}
}

func TestLoadBytesMissingSecret(t *testing.T) {
	const bad = `
[Global]
Protocol-Version=1

[Interface "widgets"]
Type-ID=3fa85f64-5717-4562-b3fc-2c963f66afa6
Version=1
`
	if _, err := LoadBytes([]byte(bad)); err != ErrMissingSecret {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestLoadBytesInvalidTypeID(t *testing.T) {
	const bad = `
[Global]
Protocol-Version=1
Shared-Secret=x

[Interface "widgets"]
Type-ID=not-a-uuid
Version=1
`
	_, err := LoadBytes([]byte(bad))
	if err == nil {
		t.Fatal("expected error for invalid Type-ID")
	}
}

func TestEnvOverridesSecret(t *testing.T) {
	t.Setenv(envSecret, "from-env")
	const noSecret = `
[Global]
Protocol-Version=1

[Interface "widgets"]
Type-ID=3fa85f64-5717-4562-b3fc-2c963f66afa6
Version=1
`
	pc, err := LoadBytes([]byte(noSecret))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if pc.Secret() != "from-env" {
		t.Fatalf("expected env override, got %q", pc.Secret())
	}
}
