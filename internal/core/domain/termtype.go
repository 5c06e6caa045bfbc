package domain

// TermType classifies a clinical term and drives dataset selection.
type TermType string

// Recognised term types.
const (
	// TermTypeDiagnosis covers diseases, conditions and symptoms.
	TermTypeDiagnosis TermType = "diagnosis"

	// TermTypeProcedure covers medical procedures, surgeries and treatments.
	TermTypeProcedure TermType = "procedure"

	// TermTypeLabTest covers laboratory tests and panels.
	TermTypeLabTest TermType = "lab_test"

	// TermTypeMedication covers drugs and medications.
	TermTypeMedication TermType = "medication"

	// TermTypeMedicalEquipment covers durable medical equipment,
	// prosthetics, orthotics and assistive devices.
	TermTypeMedicalEquipment TermType = "medical_equipment"

	// TermTypeUnit covers units of measure such as mg or mmol/L.
	TermTypeUnit TermType = "unit"

	// TermTypePhenotype covers observable clinical features used in
	// genetic and genomic contexts.
	TermTypePhenotype TermType = "phenotype"

	// TermTypeGeneticVariant covers genetic variants.
	TermTypeGeneticVariant TermType = "genetic_variant"

	// TermTypeGene covers gene names.
	TermTypeGene TermType = "gene"

	// TermTypeGeneticDisease covers hereditary and genetic diseases.
	TermTypeGeneticDisease TermType = "genetic_disease"

	// TermTypePharmacogenomics covers drug-gene interactions.
	TermTypePharmacogenomics TermType = "pharmacogenomics"

	// TermTypeProvider covers healthcare providers.
	TermTypeProvider TermType = "provider"

	// TermTypeUnknown is used when classification failed or was skipped.
	TermTypeUnknown TermType = "unknown"
)

// IsValid returns true if the term type is recognised.
func (t TermType) IsValid() bool {
	switch t {
	case TermTypeDiagnosis, TermTypeProcedure, TermTypeLabTest,
		TermTypeMedication, TermTypeMedicalEquipment, TermTypeUnit,
		TermTypePhenotype, TermTypeGeneticVariant, TermTypeGene,
		TermTypeGeneticDisease, TermTypePharmacogenomics,
		TermTypeProvider, TermTypeUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t TermType) String() string {
	return string(t)
}

// Description returns a human-readable description of the term type.
func (t TermType) Description() string {
	switch t {
	case TermTypeDiagnosis:
		return "Diagnosis (diseases, conditions, symptoms)"
	case TermTypeProcedure:
		return "Procedure (surgeries, treatments)"
	case TermTypeLabTest:
		return "Laboratory Test"
	case TermTypeMedication:
		return "Medication"
	case TermTypeMedicalEquipment:
		return "Medical Equipment (DME, prosthetics, assistive devices)"
	case TermTypeUnit:
		return "Unit of Measure"
	case TermTypePhenotype:
		return "Phenotype (clinical features)"
	case TermTypeGeneticVariant:
		return "Genetic Variant"
	case TermTypeGene:
		return "Gene"
	case TermTypeGeneticDisease:
		return "Genetic Disease"
	case TermTypePharmacogenomics:
		return "Pharmacogenomics (drug-gene interactions)"
	case TermTypeProvider:
		return "Healthcare Provider"
	case TermTypeUnknown:
		return unknownDescription
	default:
		return unknownDescription
	}
}

// AllTermTypes returns every recognised term type except unknown.
func AllTermTypes() []TermType {
	return []TermType{
		TermTypeDiagnosis,
		TermTypeProcedure,
		TermTypeLabTest,
		TermTypeMedication,
		TermTypeMedicalEquipment,
		TermTypeUnit,
		TermTypePhenotype,
		TermTypeGeneticVariant,
		TermTypeGene,
		TermTypeGeneticDisease,
		TermTypePharmacogenomics,
		TermTypeProvider,
	}
}
