package mysql

const createMigrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INT PRIMARY KEY,
  name       VARCHAR(255) NOT NULL,
  applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const migrationAppliedSQL = `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`

const recordMigrationSQL = `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`

// -----------------------------------------------------------------------------
// WRITE QUERIES
// -----------------------------------------------------------------------------

const insertPropertySQL = `
INSERT INTO properties
  (code, title, property_type, purpose,
   sale_price, rental_price, daily_price, condominium_fee, iptu_value,
   accepts_financing, accepts_exchange, total_area, built_area,
   number_of_bedrooms, number_of_suites, number_of_bathrooms, number_of_parking_spots,
   construction_year, floor, neighborhood, location, description, active, highlight)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updatePropertySQL = `
UPDATE properties SET
  code = ?, title = ?, property_type = ?, purpose = ?,
  sale_price = ?, rental_price = ?, daily_price = ?, condominium_fee = ?, iptu_value = ?,
  accepts_financing = ?, accepts_exchange = ?, total_area = ?, built_area = ?,
  number_of_bedrooms = ?, number_of_suites = ?, number_of_bathrooms = ?, number_of_parking_spots = ?,
  construction_year = ?, floor = ?, neighborhood = ?, location = ?, description = ?,
  active = ?, highlight = ?
WHERE id = ?
`

const (
	deleteImagesSQL         = `DELETE FROM property_images WHERE property_id = ?`
	deleteInfrastructureSQL = `DELETE FROM property_infrastructure WHERE property_id = ?`
	deletePropertySQL       = `DELETE FROM properties WHERE id = ?`
	setActiveSQL            = `UPDATE properties SET active = ? WHERE id = ?`
	setHighlightSQL         = `UPDATE properties SET highlight = ? WHERE id = ?`
)

const insertImagesPrefix = "INSERT INTO property_images (property_id, url, name, type, highlight) VALUES "

const infrastructureColumns = `pool, gym, elevator, barbecue, playground, party_room, gourmet_area, sauna,
  concierge, security, garden, sports_court, laundry, pet_area, balcony`

const insertInfrastructureSQL = `
INSERT INTO property_infrastructure
  (property_id, ` + infrastructureColumns + `)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const upsertInfrastructureSQL = insertInfrastructureSQL + `ON DUPLICATE KEY UPDATE
  pool = VALUES(pool), gym = VALUES(gym), elevator = VALUES(elevator),
  barbecue = VALUES(barbecue), playground = VALUES(playground), party_room = VALUES(party_room),
  gourmet_area = VALUES(gourmet_area), sauna = VALUES(sauna), concierge = VALUES(concierge),
  security = VALUES(security), garden = VALUES(garden), sports_court = VALUES(sports_court),
  laundry = VALUES(laundry), pet_area = VALUES(pet_area), balcony = VALUES(balcony)
`

// Image highlight swap; the property row lock serialises concurrent swaps.
const (
	lockPropertySQL      = `SELECT id FROM properties WHERE id = ? FOR UPDATE`
	imageBelongsSQL      = `SELECT 1 FROM property_images WHERE id = ? AND property_id = ?`
	setImageHighlightSQL = `UPDATE property_images SET highlight = (id = ?) WHERE property_id = ?`
)

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const propertyColumns = `
  p.id, p.code, p.title, p.property_type, p.purpose,
  p.sale_price, p.rental_price, p.daily_price, p.condominium_fee, p.iptu_value,
  p.accepts_financing, p.accepts_exchange, p.total_area, p.built_area,
  p.number_of_bedrooms, p.number_of_suites, p.number_of_bathrooms, p.number_of_parking_spots,
  p.construction_year, p.floor, p.neighborhood, p.location, p.description,
  p.active, p.highlight, p.created_at, p.updated_at`

const (
	selectPropertiesSQL     = `SELECT` + propertyColumns + ` FROM properties p`
	countPropertiesSQL      = `SELECT COUNT(*) FROM properties p`
	listingOrderSQL         = ` ORDER BY p.highlight DESC, p.created_at DESC, p.id DESC`
	getPropertyByIDSQL      = selectPropertiesSQL + ` WHERE p.id = ?`
	getPropertyByCodeSQL    = selectPropertiesSQL + ` WHERE p.code = ?`
	getImageSQL             = `SELECT id, property_id, url, name, type, highlight FROM property_images WHERE id = ?`
	imagesForPrefix         = `SELECT id, property_id, url, name, type, highlight FROM property_images WHERE property_id IN `
	infrastructureForPrefix = `SELECT property_id, ` + infrastructureColumns + ` FROM property_infrastructure WHERE property_id IN `
)
