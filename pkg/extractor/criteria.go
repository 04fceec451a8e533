package extractor

// FieldKind selects how a field value is read once its label is found.
type FieldKind int

const (
	// KindText reads the cell value at the label offset.
	KindText FieldKind = iota
	// KindCheckbox reads the checked state of one checkbox.
	KindCheckbox
	// KindChoice reads a group of checkboxes of which exactly one may be checked.
	KindChoice
)

// Choice is a checkbox option: the control sits Offset columns right of the label
// and is recognized by its text matching one of Terms.
type Choice struct {
	Label  string
	Terms  []string
	Offset int
}

// SearchCriteria describes where a field's label may be and how to read its value.
type SearchCriteria struct {
	// Labels are the label terms; a label cell matches when it contains any of them.
	Labels []string
	// Ranges are candidate label ranges, tried in order.
	Ranges []CellRange
	// Kind selects the reader.
	Kind FieldKind
	// Offset is the value column offset for KindText.
	Offset int
	// Checkbox is the control read by KindCheckbox; its Label is unused.
	Checkbox Choice
	// Choices are the options of KindChoice.
	Choices []Choice
}

// field binds SearchCriteria to a destination in a details struct.
type field[T any] struct {
	name     string
	criteria SearchCriteria
	text     func(*T) *string
	flag     func(*T) *bool
}

func rangeOf(start, end string) []CellRange {
	return []CellRange{{StartCell: start, EndCell: end}}
}

func textField[T any](name string, labels []string, ranges []CellRange, offset int, dst func(*T) *string) field[T] {
	return field[T]{
		name:     name,
		criteria: SearchCriteria{Labels: labels, Ranges: ranges, Kind: KindText, Offset: offset},
		text:     dst,
	}
}

func checkboxField[T any](name string, labels []string, ranges []CellRange, box Choice, dst func(*T) *bool) field[T] {
	return field[T]{
		name:     name,
		criteria: SearchCriteria{Labels: labels, Ranges: ranges, Kind: KindCheckbox, Checkbox: box},
		flag:     dst,
	}
}

func choiceField[T any](name string, labels []string, ranges []CellRange, choices []Choice, dst func(*T) *string) field[T] {
	return field[T]{
		name:     name,
		criteria: SearchCriteria{Labels: labels, Ranges: ranges, Kind: KindChoice, Choices: choices},
		text:     dst,
	}
}

func yesNo(yesOffset, noOffset int) []Choice {
	return []Choice{
		{Label: "YES", Terms: []string{"YES"}, Offset: yesOffset},
		{Label: "NO", Terms: []string{"NO"}, Offset: noOffset},
	}
}

var yesBox = Choice{Terms: []string{"YES"}, Offset: 5}

// buyerFields returns the section A field table.
func buyerFields(companyNames []string) []field[BuyerDetails] {
	return []field[BuyerDetails]{
		textField("PartNumber", []string{"part number", "part-nr", "part_number"}, rangeOf("B12", "D12"), 3,
			func(d *BuyerDetails) *string { return &d.PartNumber }),
		textField("PartDescription", []string{"description", "desc", "part description"}, rangeOf("B13", "D13"), 3,
			func(d *BuyerDetails) *string { return &d.PartDescription }),
		choiceField("ClassificationOfItem",
			expandCompanyNames([]string{CompanyNamePlaceholder + " Classification of item"}, companyNames),
			rangeOf("B15", "D15"),
			[]Choice{
				{Label: "DUAL", Terms: []string{"Dual", "DU"}, Offset: 3},
				{Label: "MILITARY", Terms: []string{"Military", "MIL"}, Offset: 4},
			},
			func(d *BuyerDetails) *string { return &d.ClassificationOfItem }),
		textField("ControlListClassificationNumber", []string{"control list classification number"}, rangeOf("B18", "D18"), 3,
			func(d *BuyerDetails) *string { return &d.ControlListClassificationNumber }),
		textField("RFQ", []string{"RQF", "quote reference"}, rangeOf("B19", "D19"), 3,
			func(d *BuyerDetails) *string { return &d.RFQ }),
		checkboxField("BuildToPrint", []string{"Build To Print"}, rangeOf("B21", "F21"), yesBox,
			func(d *BuyerDetails) *bool { return &d.BuildToPrint }),
		checkboxField("ManufacturedToSpecification", []string{"Manufactured to specification", "(MTS)"}, rangeOf("B22", "F22"), yesBox,
			func(d *BuyerDetails) *bool { return &d.ManufacturedToSpecification }),
		checkboxField("OriginalEquipmentManufacturer", []string{"Original Equipment Manufacturer"}, rangeOf("B23", "F23"), yesBox,
			func(d *BuyerDetails) *bool { return &d.OriginalEquipmentManufacturer }),
		checkboxField("Modified", []string{"Modified"}, rangeOf("B25", "F25"), yesBox,
			func(d *BuyerDetails) *bool { return &d.Modified }),
	}
}

// productFields returns the section B field table.
func productFields(companyNames []string) []field[ProductDetails] {
	representative := func(first, second int) []CellRange {
		return []CellRange{
			{StartCell: cellName("B", first), EndCell: cellName("D", first)},
			{StartCell: cellName("B", second), EndCell: cellName("D", second)},
		}
	}

	return []field[ProductDetails]{
		textField("SupplierPartNumber", []string{"Supplier part number"}, rangeOf("C11", "D11"), 2,
			func(d *ProductDetails) *string { return &d.SupplierPartNumber }),
		textField("SupplierCompanyName", []string{"company name"}, rangeOf("C12", "C12"), 1,
			func(d *ProductDetails) *string { return &d.SupplierCompanyName }),
		textField("SupplierFullAddress", []string{"full address"}, rangeOf("C13", "C13"), 1,
			func(d *ProductDetails) *string { return &d.SupplierFullAddress }),
		textField("SupplierCountry", []string{"Country"}, rangeOf("C14", "C14"), 1,
			func(d *ProductDetails) *string { return &d.SupplierCountry }),
		textField("SupplierCompanyNumber", []string{"company number"}, rangeOf("C15", "C15"), 1,
			func(d *ProductDetails) *string { return &d.SupplierCompanyNumber }),
		textField("ManufacturerPartNumber", []string{"manufacturer part number"}, rangeOf("C16", "C16"), 2,
			func(d *ProductDetails) *string { return &d.ManufacturerPartNumber }),
		textField("ManufacturerCompanyName", []string{"company name"}, rangeOf("C17", "C17"), 1,
			func(d *ProductDetails) *string { return &d.ManufacturerCompanyName }),
		textField("ManufacturerFullAddress", []string{"full address"}, rangeOf("C18", "C18"), 1,
			func(d *ProductDetails) *string { return &d.ManufacturerFullAddress }),
		textField("ManufacturerCountry", []string{"Country"}, rangeOf("C19", "C19"), 1,
			func(d *ProductDetails) *string { return &d.ManufacturerCountry }),
		textField("ManufacturerCompanyNumber", []string{"company number"}, rangeOf("C20", "C20"), 1,
			func(d *ProductDetails) *string { return &d.ManufacturerCompanyNumber }),
		textField("CountryOfOrigin", []string{"country of origin"}, rangeOf("B21", "D21"), 3,
			func(d *ProductDetails) *string { return &d.CountryOfOrigin }),
		textField("CustomsTariffCode", []string{"customs tariff code"}, rangeOf("B22", "D22"), 3,
			func(d *ProductDetails) *string { return &d.CustomsTariffCode }),
		choiceField("ExportControlRegulated", []string{"export control regulations"}, rangeOf("B23", "D23"), yesNo(3, 4),
			func(d *ProductDetails) *string { return &d.ExportControlRegulated }),
		choiceField("PartClassification", []string{"classification of the part"}, rangeOf("B24", "D24"),
			[]Choice{
				{Label: "DUAL", Terms: []string{"DU", "DUAL"}, Offset: 3},
				{Label: "MILITARY", Terms: []string{"MIL"}, Offset: 3},
				{Label: "CIVIL", Terms: []string{"CIVIL"}, Offset: 5},
			},
			func(d *ProductDetails) *string { return &d.PartClassification }),
		textField("ControlListClassificationNumber", []string{"control list classification number"}, rangeOf("B28", "D28"), 3,
			func(d *ProductDetails) *string { return &d.ControlListClassificationNumber }),
		choiceField("ThirdCountryControlledContent", []string{"third country controlled content"}, rangeOf("B29", "D29"), yesNo(3, 4),
			func(d *ProductDetails) *string { return &d.ThirdCountryControlledContent }),
		choiceField("EndUserStatementRequired", []string{"end user statement will be required"}, rangeOf("B31", "E31"), yesNo(4, 4),
			func(d *ProductDetails) *string { return &d.EndUserStatementRequired }),
		choiceField("ExportLicenceShipmentRequired",
			expandCompanyNames([]string{"Export Licence for shipment to " + CompanyNamePlaceholder}, companyNames),
			rangeOf("B32", "E32"), yesNo(4, 4),
			func(d *ProductDetails) *string { return &d.ExportLicenceShipmentRequired }),
		choiceField("ExportLicenceEndUserRequired",
			expandCompanyNames([]string{"Export Licence for shipment to " + CompanyNamePlaceholder + " Specified End User"}, companyNames),
			rangeOf("B33", "E33"),
			append(yesNo(4, 4), Choice{
				Label:  "END USER NOT ADVISED TO SUPPLIER",
				Terms:  []string{"END USER NOT ADVISED TO SUPPLIER"},
				Offset: 4,
			}),
			func(d *ProductDetails) *string { return &d.ExportLicenceEndUserRequired }),
		choiceField("AdditionalExportDocsRequired", []string{"Are other export documents required to be completed by"},
			rangeOf("B34", "E34"), yesNo(4, 4),
			func(d *ProductDetails) *string { return &d.AdditionalExportDocsRequired }),
		textField("TransferReexportConditions", []string{"additional is required to allow the product to be shipped"},
			[]CellRange{{StartCell: "B35", EndCell: "E35"}, {StartCell: "B36", EndCell: "E36"}}, 4,
			func(d *ProductDetails) *string { return &d.TransferReexportConditions }),
		textField("RepresentativeName", []string{"name"}, representative(49, 50), 3,
			func(d *ProductDetails) *string { return &d.RepresentativeName }),
		textField("RepresentativePosition", []string{"position in the company"}, representative(50, 51), 3,
			func(d *ProductDetails) *string { return &d.RepresentativePosition }),
		textField("RepresentativeSignature", []string{"Signature of Supplier"}, representative(51, 52), 3,
			func(d *ProductDetails) *string { return &d.RepresentativeSignature }),
		textField("SupplierCompanySeal", []string{"SUPPLIER COMPANY SEAL", "company name"}, representative(52, 53), 3,
			func(d *ProductDetails) *string { return &d.SupplierCompanySeal }),
		textField("SignatureDate", []string{"DATE", "(day/month/year)"}, representative(53, 54), 3,
			func(d *ProductDetails) *string { return &d.SignatureDate }),
	}
}

// column maps a section C header to a row field.
type column struct {
	name  string
	terms []string
	dst   func(*ControlledContentRow) *string
}

// controlledContentColumns returns the section C column table. The first column
// decides where the table ends.
func controlledContentColumns() []column {
	return []column{
		{"ItemNum", []string{"Item"},
			func(r *ControlledContentRow) *string { return &r.ItemNum }},
		{"PartNumber", []string{"part number"},
			func(r *ControlledContentRow) *string { return &r.PartNumber }},
		{"ComponentManufacturerPartNumber", []string{"component manufacturer part number", "component manufacturer part-nr"},
			func(r *ControlledContentRow) *string { return &r.ComponentManufacturerPartNumber }},
		{"PartDescription", []string{"part description", "component description"},
			func(r *ControlledContentRow) *string { return &r.PartDescription }},
		{"ManufacturerOfComponent", []string{"manufacturer of the component", "manufacturer of component"},
			func(r *ControlledContentRow) *string { return &r.ManufacturerOfComponent }},
		{"ExportRegulationCountry", []string{"export regulations country"},
			func(r *ControlledContentRow) *string { return &r.ExportRegulationCountry }},
		{"DualControlListClfNum", []string{"Dual Use Item  - Control list classification number"},
			func(r *ControlledContentRow) *string { return &r.DualControlListClfNum }},
		{"MilitaryControlListClfNum", []string{"Military Item - Control list classification number"},
			func(r *ControlledContentRow) *string { return &r.MilitaryControlListClfNum }},
		{"IndicateLicenseApplication", []string{"Indicate License Application Form/Type "},
			func(r *ControlledContentRow) *string { return &r.IndicateLicenseApplication }},
		{"TopLevelDeliverableItem", []string{"Content of the top level deliverable item"},
			func(r *ControlledContentRow) *string { return &r.TopLevelDeliverableItem }},
		{"USMLNumber", []string{"usml n°", "usml"},
			func(r *ControlledContentRow) *string { return &r.USMLNumber }},
		{"ECCNNumber", []string{"ECCN N°", "ECCN", "EAR 99"},
			func(r *ControlledContentRow) *string { return &r.ECCNNumber }},
		{"USEARContentRatio", []string{"Ratio of US EAR controlled content"},
			func(r *ControlledContentRow) *string { return &r.USEARContentRatio }},
	}
}
