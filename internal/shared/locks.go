package shared

import "fmt"

// ImportShopLockKey builds the redis key serialising imports per shop.
func ImportShopLockKey(shopID int64) string {
	return fmt.Sprintf("import:shop:%d:lock", shopID)
}

// OrderLockKey builds the redis key for purchase order critical sections.
func OrderLockKey(poID int64) string {
	return fmt.Sprintf("procurement:po:%d:lock", poID)
}
