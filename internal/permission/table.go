package permission

import "labtrace/pkg/domain"

// DefaultTable is the laboratory's standing permission policy. Capabilities
// are independent flags; there is no implication between them (a role may
// edit samples without being able to delete them).
//
// Admin rows are written out in full even though Allowed short-circuits for
// admin, so the plain table stays testable against the override.
func DefaultTable() Table {
	return Table{
		domain.RoleAdmin: {
			domain.CapManageUsers:        true,
			domain.CapManageRoles:        true,
			domain.CapExportUsers:        true,
			domain.CapOpenNotebooks:      true,
			domain.CapCloseNotebooks:     true,
			domain.CapGrantAccess:        true,
			domain.CapModifyPlatform:     true,
			domain.CapViewAudit:          true,
			domain.CapEditSamples:        true,
			domain.CapDeleteSamples:      true,
			domain.CapEditMolecules:      true,
			domain.CapDeleteMolecules:    true,
			domain.CapApproveExperiments: true,
			domain.CapExportData:         true,
			domain.CapConfigureSystem:    true,
		},
		domain.RolePI: {
			domain.CapManageUsers:        false,
			domain.CapManageRoles:        false,
			domain.CapExportUsers:        false,
			domain.CapOpenNotebooks:      true,
			domain.CapCloseNotebooks:     true,
			domain.CapGrantAccess:        true,
			domain.CapModifyPlatform:     false,
			domain.CapViewAudit:          true,
			domain.CapEditSamples:        true,
			domain.CapDeleteSamples:      false,
			domain.CapEditMolecules:      true,
			domain.CapDeleteMolecules:    false,
			domain.CapApproveExperiments: true,
			domain.CapExportData:         true,
			domain.CapConfigureSystem:    false,
		},
		domain.RoleSeniorChemist: {
			domain.CapManageUsers:        false,
			domain.CapManageRoles:        false,
			domain.CapExportUsers:        false,
			domain.CapOpenNotebooks:      false,
			domain.CapCloseNotebooks:     false,
			domain.CapGrantAccess:        false,
			domain.CapModifyPlatform:     false,
			domain.CapViewAudit:          false,
			domain.CapEditSamples:        true,
			domain.CapDeleteSamples:      false,
			domain.CapEditMolecules:      true,
			domain.CapDeleteMolecules:    false,
			domain.CapApproveExperiments: false,
			domain.CapExportData:         true,
			domain.CapConfigureSystem:    false,
		},
		domain.RoleJuniorChemist: {
			domain.CapManageUsers:        false,
			domain.CapManageRoles:        false,
			domain.CapExportUsers:        false,
			domain.CapOpenNotebooks:      false,
			domain.CapCloseNotebooks:     false,
			domain.CapGrantAccess:        false,
			domain.CapModifyPlatform:     false,
			domain.CapViewAudit:          false,
			domain.CapEditSamples:        false,
			domain.CapDeleteSamples:      false,
			domain.CapEditMolecules:      false,
			domain.CapDeleteMolecules:    false,
			domain.CapApproveExperiments: false,
			domain.CapExportData:         false,
			domain.CapConfigureSystem:    false,
		},
		domain.RoleAnalyst: {
			domain.CapManageUsers:        false,
			domain.CapManageRoles:        false,
			domain.CapExportUsers:        false,
			domain.CapOpenNotebooks:      false,
			domain.CapCloseNotebooks:     false,
			domain.CapGrantAccess:        false,
			domain.CapModifyPlatform:     false,
			domain.CapViewAudit:          false,
			domain.CapEditSamples:        true,
			domain.CapDeleteSamples:      false,
			domain.CapEditMolecules:      false,
			domain.CapDeleteMolecules:    false,
			domain.CapApproveExperiments: false,
			domain.CapExportData:         false,
			domain.CapConfigureSystem:    false,
		},
		domain.RoleQA: {
			domain.CapManageUsers:        false,
			domain.CapManageRoles:        false,
			domain.CapExportUsers:        false,
			domain.CapOpenNotebooks:      false,
			domain.CapCloseNotebooks:     false,
			domain.CapGrantAccess:        false,
			domain.CapModifyPlatform:     false,
			domain.CapViewAudit:          true,
			domain.CapEditSamples:        false,
			domain.CapDeleteSamples:      false,
			domain.CapEditMolecules:      false,
			domain.CapDeleteMolecules:    false,
			domain.CapApproveExperiments: false,
			domain.CapExportData:         true,
			domain.CapConfigureSystem:    false,
		},
		domain.RoleViewer: {
			domain.CapManageUsers:        false,
			domain.CapManageRoles:        false,
			domain.CapExportUsers:        false,
			domain.CapOpenNotebooks:      false,
			domain.CapCloseNotebooks:     false,
			domain.CapGrantAccess:        false,
			domain.CapModifyPlatform:     false,
			domain.CapViewAudit:          false,
			domain.CapEditSamples:        false,
			domain.CapDeleteSamples:      false,
			domain.CapEditMolecules:      false,
			domain.CapDeleteMolecules:    false,
			domain.CapApproveExperiments: false,
			domain.CapExportData:         false,
			domain.CapConfigureSystem:    false,
		},
	}
}
