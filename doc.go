// Package sqldict - a Go package for SQL dictionaries (named, parameterized statement templates stored in json)
//
/*
Statement definitions are read from json sources in a directory, each source having a 'statements' member:

  {
    "statements": {
      "employee_by_number": {
        "description": ["Find an employee by number"],
        "statement_text": ["SELECT * FROM employees WHERE emp_no = ?"],
        "parameters": [
          {"name": "emp_no", "param_type": "marker", "data_type": "int"}
        ]
      }
    }
  }

Marker parameters replace `?` placeholders (left to right), substitute parameters replace `@name` placeholders.

Example:
  stmts, _ := sqldict.Find("employee", "./sql")
  params := stmts[0].NewParameters()
  _ = params[0].Assign("10001")
  text, _ := stmts[0].Expand(params)
  // text == "SELECT * FROM employees WHERE emp_no = 10001"
*/
package sqldict
