package domain

import "strings"

// DatasetID identifies one Clinical Tables terminology dataset.
type DatasetID string

// Available datasets.
const (
	DatasetICD10CM         DatasetID = "icd10cm"
	DatasetICD11           DatasetID = "icd11"
	DatasetICD9CMDiag      DatasetID = "icd9cm_dx"
	DatasetICD9CMProc      DatasetID = "icd9cm_sg"
	DatasetLOINC           DatasetID = "loinc"
	DatasetRxTerms         DatasetID = "rxterms"
	DatasetHCPCS           DatasetID = "hcpcs"
	DatasetUCUM            DatasetID = "ucum"
	DatasetHPO             DatasetID = "hpo"
	DatasetNPIIndividual   DatasetID = "npi_idv"
	DatasetNPIOrg          DatasetID = "npi_org"
	DatasetConditions      DatasetID = "conditions"
	DatasetProcedures      DatasetID = "procedures"
	DatasetDrugs           DatasetID = "drugs"
	DatasetClinVar         DatasetID = "clinvar"
	DatasetGenes           DatasetID = "genes"
	DatasetSNPs            DatasetID = "snps"
	DatasetGeneticDiseases DatasetID = "genetic_diseases"
	DatasetPharmVar        DatasetID = "pharmvar"
)

// DatasetInfo describes one terminology dataset.
type DatasetInfo struct {
	// ID is the dataset identifier.
	ID DatasetID

	// DisplayName is the coding system name shown to users.
	DisplayName string

	// Path is the search endpoint relative to the API base URL.
	Path string

	// SearchFields is the extra "sf" query parameter for datasets that
	// need explicit search fields. Empty when the default applies.
	SearchFields string

	// Official marks official coding systems. Supplementary databases
	// (general condition/procedure/disease name lists) are ranked below
	// official systems when assembling recommendations.
	Official bool
}

// datasetCatalogue holds metadata for every dataset, in display order.
var datasetCatalogue = []DatasetInfo{
	{ID: DatasetICD10CM, DisplayName: "ICD-10-CM", Path: "icd10cm/v3/search", SearchFields: "code,name", Official: true},
	{ID: DatasetICD11, DisplayName: "ICD-11", Path: "icd11/v3/search", SearchFields: "code,name", Official: true},
	{ID: DatasetICD9CMDiag, DisplayName: "ICD-9-CM Diagnoses", Path: "icd9cm_dx/v3/search", SearchFields: "code,name", Official: true},
	{ID: DatasetICD9CMProc, DisplayName: "ICD-9-CM Procedures", Path: "icd9cm_sg/v3/search", SearchFields: "code,name", Official: true},
	{ID: DatasetLOINC, DisplayName: "LOINC", Path: "loinc_items/v3/search", Official: true},
	{ID: DatasetRxTerms, DisplayName: "RxTerms", Path: "rxterms/v3/search", Official: true},
	{ID: DatasetHCPCS, DisplayName: "HCPCS", Path: "hcpcs/v3/search", Official: true},
	{ID: DatasetUCUM, DisplayName: "UCUM", Path: "ucum/v3/search"},
	{ID: DatasetHPO, DisplayName: "HPO", Path: "hpo/v3/search", Official: true},
	{ID: DatasetNPIIndividual, DisplayName: "NPI (Individuals)", Path: "npi_idv/v3/search", Official: true},
	{ID: DatasetNPIOrg, DisplayName: "NPI (Organizations)", Path: "npi_org/v3/search", Official: true},
	{ID: DatasetConditions, DisplayName: "Medical Conditions", Path: "conditions/v3/search"},
	{ID: DatasetProcedures, DisplayName: "Procedures", Path: "procedures/v3/search"},
	{ID: DatasetDrugs, DisplayName: "Drugs", Path: "rxterms/v3/search", Official: true},
	{ID: DatasetClinVar, DisplayName: "ClinVar", Path: "clinvar/v3/search", Official: true},
	{ID: DatasetGenes, DisplayName: "Genes", Path: "genes/v3/search", Official: true},
	{ID: DatasetSNPs, DisplayName: "SNPs", Path: "snps/v3/search", Official: true},
	{ID: DatasetGeneticDiseases, DisplayName: "Genetic Diseases", Path: "disease_names/v3/search"},
	{ID: DatasetPharmVar, DisplayName: "PharmVar", Path: "pharmvar_star_alleles/v3/search", Official: true},
}

// termTypeDatasets maps each term type to the datasets worth searching,
// most relevant first.
var termTypeDatasets = map[TermType][]DatasetID{
	TermTypeDiagnosis:        {DatasetICD10CM, DatasetICD11, DatasetICD9CMDiag, DatasetConditions},
	TermTypeProcedure:        {DatasetHCPCS, DatasetICD9CMProc, DatasetProcedures},
	TermTypeLabTest:          {DatasetLOINC},
	TermTypeMedication:       {DatasetRxTerms, DatasetDrugs},
	TermTypeMedicalEquipment: {DatasetHCPCS},
	TermTypeUnit:             {DatasetUCUM},
	TermTypePhenotype:        {DatasetHPO, DatasetICD10CM, DatasetConditions},
	TermTypeGeneticVariant:   {DatasetClinVar, DatasetSNPs},
	TermTypeGene:             {DatasetGenes},
	TermTypeGeneticDisease:   {DatasetGeneticDiseases, DatasetHPO},
	TermTypePharmacogenomics: {DatasetPharmVar},
	TermTypeProvider:         {DatasetNPIIndividual, DatasetNPIOrg},
}

// Datasets returns the full dataset catalogue in display order.
func Datasets() []DatasetInfo {
	out := make([]DatasetInfo, len(datasetCatalogue))
	copy(out, datasetCatalogue)
	return out
}

// DatasetByID returns the catalogue entry for a dataset.
func DatasetByID(id DatasetID) (DatasetInfo, bool) {
	for _, info := range datasetCatalogue {
		if info.ID == id {
			return info, true
		}
	}
	return DatasetInfo{}, false
}

// AllDatasetIDs returns every dataset identifier in catalogue order.
func AllDatasetIDs() []DatasetID {
	ids := make([]DatasetID, len(datasetCatalogue))
	for i, info := range datasetCatalogue {
		ids[i] = info.ID
	}
	return ids
}

// DatasetsForTermType returns the datasets to search for a term type.
// Unknown or unmapped types get a general-purpose selection.
func DatasetsForTermType(t TermType) []DatasetID {
	mapped, ok := termTypeDatasets[t]
	if !ok {
		return []DatasetID{DatasetICD10CM, DatasetLOINC, DatasetRxTerms}
	}
	out := make([]DatasetID, len(mapped))
	copy(out, mapped)
	return out
}

// PrimaryDatasetFor returns the most relevant dataset for a term type.
func PrimaryDatasetFor(t TermType) (DatasetID, bool) {
	mapped, ok := termTypeDatasets[t]
	if !ok || len(mapped) == 0 {
		return "", false
	}
	return mapped[0], true
}

// IsValid returns true if the dataset is in the catalogue.
func (id DatasetID) IsValid() bool {
	_, ok := DatasetByID(id)
	return ok
}

// String returns the string representation.
func (id DatasetID) String() string {
	return string(id)
}

// DisplayName returns the coding system name shown to users.
func (id DatasetID) DisplayName() string {
	if info, ok := DatasetByID(id); ok {
		return info.DisplayName
	}
	return strings.ToUpper(string(id))
}

// IsOfficial returns true for official coding systems.
func (id DatasetID) IsOfficial() bool {
	info, ok := DatasetByID(id)
	return ok && info.Official
}
