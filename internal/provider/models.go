package provider

// ModelType represents a standard data model type.
// Each ModelType maps to a specific data structure in pkg/models/.
type ModelType string

// --- Prices ---
const (
	ModelConsumerPriceIndex   ModelType = "ConsumerPriceIndex"
	ModelCPIByDivision        ModelType = "CPIByDivision"
	ModelCPIOpenings          ModelType = "CPIOpenings"
	ModelCPIWeights           ModelType = "CPIWeights"
	ModelSplicedCPI           ModelType = "SplicedCPI"
	ModelUSConsumerPriceIndex ModelType = "USConsumerPriceIndex"
)

// --- Activity ---
const (
	ModelEconomicActivity ModelType = "EconomicActivity"
	ModelActivityBySector ModelType = "ActivityBySector"
	ModelGDPNominal       ModelType = "GDPNominal"
	ModelGDPReal          ModelType = "GDPReal"
	ModelReleaseCalendar  ModelType = "ReleaseCalendar"
)

// --- Monetary ---
const (
	ModelMonetaryVariables      ModelType = "MonetaryVariables"
	ModelMonetaryBase           ModelType = "MonetaryBase"
	ModelTimeDeposits           ModelType = "TimeDeposits"
	ModelCentralBankInstruments ModelType = "CentralBankInstruments"
	ModelLiquidityBills         ModelType = "LiquidityBills"
	ModelInternationalReserves  ModelType = "InternationalReserves"
	ModelPrivateLoans           ModelType = "PrivateLoans"
	ModelGovernmentDeposits     ModelType = "GovernmentDeposits"
	ModelBalanceSheetSeries     ModelType = "BalanceSheetSeries"
)

// --- Rates and currency ---
const (
	ModelOfficialExchangeRate ModelType = "OfficialExchangeRate"
	ModelBlueExchangeRate     ModelType = "BlueExchangeRate"
	ModelCERIndex             ModelType = "CERIndex"
	ModelMarketRates          ModelType = "MarketRates"
)

// AllModels returns all defined model types. Useful for iteration and validation.
func AllModels() []ModelType {
	return []ModelType{
		// Prices
		ModelConsumerPriceIndex, ModelCPIByDivision, ModelCPIOpenings,
		ModelCPIWeights, ModelSplicedCPI, ModelUSConsumerPriceIndex,
		// Activity
		ModelEconomicActivity, ModelActivityBySector,
		ModelGDPNominal, ModelGDPReal, ModelReleaseCalendar,
		// Monetary
		ModelMonetaryVariables, ModelMonetaryBase, ModelTimeDeposits,
		ModelCentralBankInstruments, ModelLiquidityBills,
		ModelInternationalReserves, ModelPrivateLoans,
		ModelGovernmentDeposits, ModelBalanceSheetSeries,
		// Rates and currency
		ModelOfficialExchangeRate, ModelBlueExchangeRate,
		ModelCERIndex, ModelMarketRates,
	}
}

// ModelCategory maps model types to their category for grouping.
func ModelCategory(m ModelType) string {
	switch m {
	case ModelConsumerPriceIndex, ModelCPIByDivision, ModelCPIOpenings,
		ModelCPIWeights, ModelSplicedCPI, ModelUSConsumerPriceIndex:
		return "Prices"
	case ModelEconomicActivity, ModelActivityBySector,
		ModelGDPNominal, ModelGDPReal, ModelReleaseCalendar:
		return "Activity"
	case ModelMonetaryVariables, ModelMonetaryBase, ModelTimeDeposits,
		ModelCentralBankInstruments, ModelLiquidityBills,
		ModelInternationalReserves, ModelPrivateLoans,
		ModelGovernmentDeposits, ModelBalanceSheetSeries:
		return "Monetary"
	case ModelOfficialExchangeRate, ModelBlueExchangeRate,
		ModelCERIndex, ModelMarketRates:
		return "Rates and currency"
	default:
		return "Other"
	}
}
