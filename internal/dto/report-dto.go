package dto

// DeviceReportItem — строка инвентарного отчета для выгрузки в Excel.
type DeviceReportItem struct {
	ID             uint64
	Name           string
	SerialNumber   string
	Status         string
	DeviceType     string
	Supplier       string
	HolderFio      string
	HolderDept     string
	PurchaseDate   string
	PurchasePrice  float64
	IncidentCount  uint64
	RepairCount    uint64
	TotalRepairSum float64
}
