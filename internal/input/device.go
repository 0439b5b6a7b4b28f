package input

// Device is one joystick node with whatever identity metadata the host
// exposed for it. Fields the host could not answer stay empty.
type Device struct {
	Path    string
	Name    string
	Vendor  string
	Product string
	Phys    string
}

// Snapshot is the result of one enumeration pass. MetadataAvailable is
// false when no identity source produced anything for any node, which
// pushes callers onto the coarse counting path.
type Snapshot struct {
	Devices           []Device
	MetadataAvailable bool
}

func (d Device) HasIdentifiers() bool {
	return d.Vendor != "" && d.Product != ""
}

func (d Device) hasMetadata() bool {
	return d.Name != "" || d.Vendor != "" || d.Product != "" || d.Phys != ""
}
