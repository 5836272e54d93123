// Package dsl provides the built-in validators for confdoc schemas.
//
// Every validator implements confdoc.Validator and is attached to a field
// in the order it should run:
//
//	mac := confdoc.Define("nic").
//	    Field("hwaddr", dsl.MACAddress(), dsl.Regex(`^[0-9a-f]{12}$`)).Default("aabbccddeeff").
//	    Field("mtu", dsl.Int().Min(576).Max(9000)).Default(1500).
//	    MustBuild()
//
// Shared behavior
//   - String candidates are trimmed before conversion.
//   - Empty candidates (null, "", empty sequence or mapping) convert to the
//     validator's empty value without further checks: "" for String, false
//     for Bool and StringBool, [] for Set, null otherwise. NotEmpty rejects
//     them instead and Constant ignores its input altogether.
//   - Failures are *confdoc.Failure values carrying an issue code; the chain
//     turns them into Issues with the field path, raw value and validator name.
//
// Validators that know their JSON Schema shape implement confdoc.SchemaHinter
// so Schema.JSONSchema can describe fields to editors.
package dsl
