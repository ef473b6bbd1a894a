package sqlstore

const insertAnalysisSQL = `
INSERT INTO analyses
  (id, unit_id, landlord_id, created_at, data_source, comp_count, current_rent,
   hedonic_price, method, confidence, vacancy_risk, median, bundle, hedonic, narrative)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertAlertSQL = `
INSERT INTO alerts (analysis_id, unit_id, landlord_id, kind, message, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first; id breaks ties between analyses saved in the same instant.
const recentAnalysesSQL = `
SELECT
  id, unit_id, landlord_id, created_at, data_source, comp_count, current_rent,
  hedonic_price, method, confidence, vacancy_risk, median, bundle, hedonic, narrative
FROM analyses
WHERE unit_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const unitAlertsSQL = `
SELECT analysis_id, unit_id, landlord_id, kind, message, created_at
FROM alerts
WHERE unit_id = ?
ORDER BY id
`

const landlordAlertsSQL = `
SELECT analysis_id, unit_id, landlord_id, kind, message, created_at
FROM alerts
WHERE landlord_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`
