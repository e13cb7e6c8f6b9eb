/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import "reflect"

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// CallSetProviderDefaultsForFields calls SetProviderDefaults() for every exported non-nil field
// of the struct pointed by obj that implements Config (e.g., each endpoint of endpoints.Config).
func CallSetProviderDefaultsForFields(obj interface{}, dp DataProvider) {
	_ = forEachConfigField(obj, dp, func(c Config, fieldDp DataProvider) error {
		c.SetProviderDefaults(fieldDp)
		return nil
	})
}

// CallSetForFields calls Set() for every exported non-nil field of the struct pointed by obj
// that implements Config. The first error stops the iteration.
func CallSetForFields(obj interface{}, dp DataProvider) error {
	return forEachConfigField(obj, dp, func(c Config, fieldDp DataProvider) error {
		return c.Set(fieldDp)
	})
}

// forEachConfigField passes the field's own key prefix to fn if the field is a KeyPrefixProvider.
func forEachConfigField(obj interface{}, dp DataProvider, fn func(c Config, fieldDp DataProvider) error) error {
	structVal := reflect.ValueOf(obj).Elem()
	structType := structVal.Type()
	for i := 0; i < structVal.NumField(); i++ {
		if !structType.Field(i).IsExported() {
			continue
		}
		fieldVal := structVal.Field(i)
		if fieldVal.Kind() == reflect.Ptr && fieldVal.IsNil() {
			continue
		}
		c, ok := fieldVal.Interface().(Config)
		if !ok {
			continue
		}
		fieldDp := dp
		if kp, isKP := c.(KeyPrefixProvider); isKP && kp.KeyPrefix() != "" {
			fieldDp = NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
		}
		if err := fn(c, fieldDp); err != nil {
			return err
		}
	}
	return nil
}
