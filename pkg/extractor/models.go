package extractor

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope printed by the CLI and returned by ExtractSECCF.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// CellRange is a rectangular cell range, e.g. B12:D12.
type CellRange struct {
	StartCell string
	EndCell   string
}

// BuyerDetails is section A of the form.
type BuyerDetails struct {
	SheetName                       string `json:"sheet_name"`
	PartNumber                      string `json:"part_number"`
	PartDescription                 string `json:"part_description"`
	ClassificationOfItem            string `json:"classification_of_item"`
	ControlListClassificationNumber string `json:"control_list_classification_number"`
	RFQ                             string `json:"rfq"`
	BuildToPrint                    bool   `json:"build_to_print"`
	ManufacturedToSpecification     bool   `json:"manufactured_to_specification"`
	OriginalEquipmentManufacturer   bool   `json:"original_equipment_manufacturer"`
	Modified                        bool   `json:"modified"`
}

// ProductDetails is section B of the form, filled in by the supplier.
type ProductDetails struct {
	SheetName string `json:"sheet_name"`

	SupplierPartNumber    string `json:"supplier_part_number"`
	SupplierCompanyName   string `json:"supplier_company_name"`
	SupplierFullAddress   string `json:"supplier_full_address"`
	SupplierCountry       string `json:"supplier_country"`
	SupplierCompanyNumber string `json:"supplier_company_number"`

	ManufacturerPartNumber    string `json:"manufacturer_part_number"`
	ManufacturerCompanyName   string `json:"manufacturer_company_name"`
	ManufacturerFullAddress   string `json:"manufacturer_full_address"`
	ManufacturerCountry       string `json:"manufacturer_country"`
	ManufacturerCompanyNumber string `json:"manufacturer_company_number"`

	CountryOfOrigin                 string `json:"country_of_origin"`
	CustomsTariffCode               string `json:"customs_tariff_code"`
	ExportControlRegulated          string `json:"export_control_regulated"` // YES or NO.
	PartClassification              string `json:"part_classification"`      // DUAL, MILITARY or CIVIL.
	ControlListClassificationNumber string `json:"control_list_classification_number"`
	ThirdCountryControlledContent   string `json:"third_country_controlled_content"`
	EndUserStatementRequired        string `json:"end_user_statement_required"`
	ExportLicenceShipmentRequired   string `json:"export_licence_shipment_required"`
	ExportLicenceEndUserRequired    string `json:"export_licence_end_user_required"`
	AdditionalExportDocsRequired    string `json:"additional_export_docs_required"`

	TransferReexportConditions string `json:"transfer_reexport_conditions"`

	RepresentativeName      string `json:"representative_name"`
	RepresentativePosition  string `json:"representative_position"`
	RepresentativeSignature string `json:"representative_signature"`
	SupplierCompanySeal     string `json:"supplier_company_seal"`
	SignatureDate           string `json:"signature_date"`
}

// ControlledContentRow is one component row of section C.
// The JSON names are consumed by existing Python callers and must not change.
type ControlledContentRow struct {
	SheetName                       string `json:"sheet_name"`
	ItemNum                         string `json:"item_num"`
	PartNumber                      string `json:"part_number"`
	ComponentManufacturerPartNumber string `json:"component_manufacturer_part_number"`
	PartDescription                 string `json:"part_description"`
	ManufacturerOfComponent         string `json:"manufacturer_of_component"`
	ExportRegulationCountry         string `json:"export_regulation_country"`
	DualControlListClfNum           string `json:"dual_control_list_clf_num"`
	MilitaryControlListClfNum       string `json:"military_control_list_clf_num"`
	IndicateLicenseApplication      string `json:"inidcate_license_application"`
	TopLevelDeliverableItem         string `json:"top_level_delierable_item"`
	USMLNumber                      string `json:"usml_n"`
	ECCNNumber                      string `json:"eccn_n"`
	USEARContentRatio               string `json:"us_ea_content_ratio"`
}

// SECCFExtraction is the extracted form. Sections whose sheet is missing stay nil.
type SECCFExtraction struct {
	BuyerDetails      *BuyerDetails          `json:"buyer_details"`
	ProductDetails    *ProductDetails        `json:"product_details"`
	ControlledContent []ControlledContentRow `json:"controlled_content"`
}
