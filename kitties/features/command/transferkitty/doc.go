// Package transferkitty implements the Transfer Kitty use case.
//
// The owner of a kitty hands it to a recipient. Transferring to oneself is allowed
// and still emits a KittyTransferred event.
package transferkitty
