package report

// stylesheet is inlined so the report has no external assets. Only the
// critical and high severities carry a colour rule.
const stylesheet = `
body {
    font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    max-width: 1200px;
    margin: 0 auto;
    padding: 20px;
    background-color: #f5f5f5;
}
h1 {
    color: #2c3e50;
    border-bottom: 3px solid #3498db;
    padding-bottom: 10px;
}
h2 {
    color: #34495e;
    margin-top: 30px;
    border-left: 4px solid #3498db;
    padding-left: 10px;
}
.section {
    background: white;
    padding: 20px;
    margin: 20px 0;
    border-radius: 8px;
    box-shadow: 0 2px 4px rgba(0,0,0,0.1);
}
.alert-item, .cve-item, .article-item {
    margin: 15px 0;
    padding: 15px;
    border-left: 4px solid #3498db;
    background: #ecf0f1;
    border-radius: 4px;
}
.alert-item h3, .cve-item h3, .article-item h3 {
    margin: 0 0 10px 0;
    color: #2c3e50;
}
.cve-critical {
    border-left-color: #e74c3c;
}
.cve-high {
    border-left-color: #e67e22;
}
a {
    color: #3498db;
    text-decoration: none;
}
a:hover {
    text-decoration: underline;
}
.date {
    color: #7f8c8d;
    font-size: 0.9em;
}
.notice {
    color: #7f8c8d;
    font-style: italic;
}
.footer {
    text-align: center;
    margin-top: 40px;
    padding-top: 20px;
    border-top: 1px solid #bdc3c7;
    color: #7f8c8d;
}
.severity {
    display: inline-block;
    padding: 3px 8px;
    border-radius: 3px;
    font-size: 0.8em;
    font-weight: bold;
    color: white;
    background-color: #95a5a6;
}
.severity-critical {
    background-color: #e74c3c;
}
.severity-high {
    background-color: #e67e22;
}
`
