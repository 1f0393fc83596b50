package domain

// Capability is a named permission flag. Capabilities are evaluated
// independently per role: there is no hierarchy or implication between them
// (canDeleteSamples does not imply canEditSamples).
//
// The string values match the flags the UI layer renders in its permission
// matrix, so they double as the wire representation.
type Capability string

const (
	CapEditSamples        Capability = "canEditSamples"
	CapDeleteSamples      Capability = "canDeleteSamples"
	CapApproveExperiments Capability = "canApproveExperiments"
	CapOpenNotebooks      Capability = "canOpenNotebooks"
	CapCloseNotebooks     Capability = "canCloseNotebooks"
	CapGrantAccess        Capability = "canGrantAccess"
	CapViewAudit          Capability = "canViewAudit"
	CapExportData         Capability = "canExportData"
	CapManageUsers        Capability = "canManageUsers"
	CapManageRoles        Capability = "canManageRoles"
	CapExportUsers        Capability = "canExportUsers"
	CapModifyPlatform     Capability = "canModifyPlatform"
	CapEditMolecules      Capability = "canEditMolecules"
	CapDeleteMolecules    Capability = "canDeleteMolecules"
	CapConfigureSystem    Capability = "canConfigureSystem"

	// CapNone marks transitions available to any authenticated actor, e.g.
	// the sample quarantine toggle. The mutation is still audited.
	CapNone Capability = ""
)

// Capabilities returns the full enumerated set in declaration order. The
// permission table must define a boolean for every role over all of these.
func Capabilities() []Capability {
	return []Capability{
		CapEditSamples,
		CapDeleteSamples,
		CapApproveExperiments,
		CapOpenNotebooks,
		CapCloseNotebooks,
		CapGrantAccess,
		CapViewAudit,
		CapExportData,
		CapManageUsers,
		CapManageRoles,
		CapExportUsers,
		CapModifyPlatform,
		CapEditMolecules,
		CapDeleteMolecules,
		CapConfigureSystem,
	}
}

func (c Capability) String() string { return string(c) }
