// Package integration contains the Integration bounded context.
// This context normalizes products and orders coming from external marketplaces
// into one canonical model and defines the capability each marketplace exposes.
//
// Key concepts:
//   - MarketplaceID: identifier of a sales channel (Falabella, MercadoLibre, Ripley, Paris, Walmart) or the Odoo ERP
//   - Product, Order, OrderItem: the canonical model every adapter translates into
//   - MarketplaceClient: port for fetching products/orders and pushing stock to a marketplace
//   - PayloadAdapter: port for translating a marketplace's native payloads into the canonical model
//   - MarketplaceRegistry: lookup of clients and adapters keyed by marketplace ID
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
